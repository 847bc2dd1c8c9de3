package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/collector"
	"github.com/agentic-research/docmap/internal/config"
	"github.com/agentic-research/docmap/internal/failure"
	"github.com/agentic-research/docmap/internal/pipeline"
	"github.com/agentic-research/docmap/internal/source"
	"github.com/agentic-research/docmap/internal/transform"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	inputPath    string
	outputPath   string
	failuresPath string
	metricsAddr  string
	workers      int
	watch        bool
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration (.yaml, .json or .hcl)")
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input: .jsonl file, .db file with a results table, or a directory")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output: .jsonl file or .db file (default stdout)")
	runCmd.Flags().StringVar(&failuresPath, "failures", "", "Archive failed payloads into this directory or .db file")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent documents (default GOMAXPROCS)")
	runCmd.Flags().BoolVar(&watch, "watch", false, "Keep watching an input directory for new files")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Map every input document and write the results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		// 1. Load configuration
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		// 2. Wire collaborators
		loc := cfg.FailedRecordsPath
		if failuresPath != "" {
			loc = failuresPath
		}
		sink, closeSink, err := failure.Open(loc)
		if err != nil {
			return err
		}
		defer func() { _ = closeSink() }()

		chains := transform.NewCache(transform.NewFileProvider(osfs.New(cfg.ChainDir)))
		stage, err := pipeline.NewStage(cfg, pipeline.Deps{Sink: sink, Chains: chains, Logger: logger})
		if err != nil {
			return err
		}

		src, err := source.Open(inputPath, payloadField(cfg), watch, logger)
		if err != nil {
			return err
		}
		out, closeOut, err := openOutput(outputPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		// 3. Metrics
		var metrics *pipeline.Metrics
		if metricsAddr != "" {
			reg := prometheus.NewRegistry()
			metrics = pipeline.NewMetrics(reg)
			srv := &http.Server{
				Addr:              metricsAddr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "error", err)
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
			logger.Info("serving metrics", "addr", metricsAddr)
		}

		// 4. Run
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var stats pipeline.Stats
		runErr := pipeline.Run(ctx, src, stage, out, pipeline.RunOptions{
			Workers: workers,
			Stats:   &stats,
			Metrics: metrics,
			Logger:  logger,
		})
		if err := closeOut(); err != nil && runErr == nil {
			runErr = err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), stats.String())
		return runErr
	},
}

func payloadField(cfg *api.Config) string {
	switch {
	case cfg.RichObject != nil && cfg.Kind == api.KindRichObject:
		return cfg.RichObject.InputField
	case cfg.XMLTransform != nil:
		return cfg.XMLTransform.BodyField
	}
	return source.DefaultField
}

// openOutput returns the collector for path and a func that flushes and
// closes it.
func openOutput(path string, stdout io.Writer) (collector.Collector, func() error, error) {
	switch {
	case path == "" || path == "-":
		j := collector.NewJSONLines(stdout)
		return j, j.Flush, nil
	case filepath.Ext(path) == ".db":
		s, err := collector.NewSQLite(path, collector.DefaultBatchSize)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	j := collector.NewJSONLines(f)
	return j, func() error {
		if err := j.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}
