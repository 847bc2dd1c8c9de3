package cmd

import (
	"errors"
	"fmt"

	"github.com/agentic-research/docmap/internal/config"
	"github.com/spf13/cobra"
)

var validateConfigPath string

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "Path to configuration (.yaml, .json or .hcl)")
	_ = validateCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a configuration and report every problem in it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(validateConfigPath)
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", fe.Error())
			}
			return fmt.Errorf("%d problem(s) in %s", len(verr.Errors), validateConfigPath)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", validateConfigPath, cfg.Kind)
		return nil
	},
}
