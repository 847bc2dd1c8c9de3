package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/classify"
	"github.com/agentic-research/docmap/internal/collector"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/mapper"
	"github.com/agentic-research/docmap/internal/transform"
	"github.com/agentic-research/docmap/internal/tree"
)

// DefaultInputField carries the payload when none is configured.
const DefaultInputField = "body"

// RichObjectStage parses the payload in the input field and maps it with
// the configured field mappings.
type RichObjectStage struct {
	cfg    api.RichObjectConfig
	mapper *mapper.Mapper
	deps   Deps
}

// NewRichObjectStage compiles cfg's mappings.
func NewRichObjectStage(cfg api.RichObjectConfig, deps Deps) (*RichObjectStage, error) {
	deps = deps.withDefaults()
	if cfg.InputField == "" {
		cfg.InputField = DefaultInputField
	}
	if cfg.TransformChainID != "" && deps.Chains == nil {
		return nil, fmt.Errorf("transform chain %q configured without a chain provider", cfg.TransformChainID)
	}
	rules, err := mapper.Compile(cfg.FieldMappings)
	if err != nil {
		return nil, err
	}
	m := mapper.New(rules, mapper.Options{
		ParentIDFieldName: cfg.ParentIDFieldName,
		FloatMode:         classify.FloatMode(cfg.FloatMode),
		Logger:            deps.Logger,
	})
	return &RichObjectStage{cfg: cfg, mapper: m, deps: deps}, nil
}

// Process maps one document. The payload field is removed from in before
// anything is emitted. Linked children are written before the parent.
func (s *RichObjectStage) Process(ctx context.Context, in *doc.Document, out collector.Collector) (res Result, err error) {
	var raw string
	defer s.deps.rescue(ctx, in.ID, &raw, &res, &err)

	start := time.Now()
	logger := s.deps.Logger.With("id", in.ID)

	// 1. Take the payload out of the document
	raw, ok := in.FirstString(s.cfg.InputField)
	in.Remove(s.cfg.InputField)
	if !ok {
		logger.Warn("input field missing, cannot process document", "field", s.cfg.InputField)
		res.Outcome = Missing
		if s.cfg.ShouldSendUnprocessed() {
			res.Emitted, err = writeAll(ctx, out, in)
		}
		return res, err
	}

	// 2. Parse
	root, perr := tree.Parse(raw, s.cfg.Format)
	if perr != nil {
		logger.Warn("payload did not parse", "error", perr)
		s.deps.archive(ctx, in.ID, raw, perr.Error())
		res.Outcome, res.Err = Failed, perr
		if s.cfg.ShouldSendUnprocessed() {
			res.Emitted, err = writeAll(ctx, out, in)
		}
		return res, err
	}
	defer func() { root.Release() }()
	logger.Debug("parsed payload", "format", s.cfg.Format, "took", time.Since(start))

	// 3. Transform chain
	if terr := s.transform(&root); terr != nil {
		logger.Warn("transform errors", "error", terr)
		s.deps.archive(ctx, in.ID, raw, "Had Transform Errors: "+terr.Error())
		res.Outcome, res.Err = Degraded, terr
	}

	// 4. Map, then emit children before the parent
	mres := s.mapper.Map(root, in)
	res.Skipped = mres.Skipped
	res.Emitted, err = writeAll(ctx, out, append(mres.Children, in)...)
	if err != nil {
		return res, err
	}

	logger.Info("processed document", "bytes", len(raw), "children", len(mres.Children), "duration", time.Since(start))
	return res, nil
}

func (s *RichObjectStage) transform(root **tree.Object) error {
	if s.cfg.TransformChainID == "" {
		return nil
	}
	ts, err := s.deps.Chains.Get(s.cfg.TransformChainID)
	if err != nil {
		return &transform.Error{Transform: s.cfg.TransformChainID, Cause: err}
	}
	next, err := transform.Run(*root, ts)
	*root = next
	return err
}
