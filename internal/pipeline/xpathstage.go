package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/collector"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/xpath"
)

// XPathStage extracts fields from XML bodies with XPath rules.
type XPathStage struct {
	cfg       api.XMLTransformConfig
	extractor *xpath.Extractor
	deps      Deps
}

// NewXPathStage compiles cfg's expressions.
func NewXPathStage(cfg api.XMLTransformConfig, deps Deps) (*XPathStage, error) {
	deps = deps.withDefaults()
	if cfg.BodyField == "" {
		cfg.BodyField = xpath.DefaultBodyField
	}
	e, err := xpath.New(cfg, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &XPathStage{cfg: cfg, extractor: e, deps: deps}, nil
}

// Process extracts documents from in and writes them.
func (s *XPathStage) Process(ctx context.Context, in *doc.Document, out collector.Collector) (res Result, err error) {
	var raw string
	defer s.deps.rescue(ctx, in.ID, &raw, &res, &err)

	start := time.Now()
	logger := s.deps.Logger.With("id", in.ID)

	bodies := in.Strings(s.cfg.BodyField)
	if len(bodies) == 0 {
		logger.Warn("body field missing, cannot process document", "field", s.cfg.BodyField)
		res.Outcome = Missing
		if s.cfg.ShouldSendUnprocessed() {
			res.Emitted, err = writeAll(ctx, out, in)
		}
		return res, err
	}
	raw = strings.Join(bodies, "\n")

	// Snapshot for pass-through: a kept parent is edited in place.
	original := in
	if s.extractor.KeepParent() && s.cfg.ShouldSendUnprocessed() {
		original = in.Clone()
	}

	docs, xerr := s.extractor.Extract(in)
	if xerr != nil {
		logger.Warn("xml body did not parse", "error", xerr)
		s.deps.archive(ctx, in.ID, raw, xerr.Error())
		res.Outcome, res.Err = Failed, xerr
		if s.cfg.ShouldSendUnprocessed() {
			res.Emitted, err = writeAll(ctx, out, original)
		}
		return res, err
	}

	res.Emitted, err = writeAll(ctx, out, docs...)
	if err != nil {
		return res, err
	}
	logger.Info("processed document", "bytes", len(raw), "emitted", len(docs), "duration", time.Since(start))
	return res, nil
}
