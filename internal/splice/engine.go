// Package splice preserves hand-aligned layout grids through an external
// reformatter.
//
// A run parses the document twice. The first pass extracts one grid per
// layout invocation from the original text and queues it. The reformatter
// then rewrites the document (or the anchor region), which typically
// collapses the grids into ordinary argument lists. The second pass parses
// the reformatted text, finds the invocations again and replaces each
// argument list with the rendering of the next queued grid. Invocations are
// reconciled by ordinal position, with the invoked identifier as a cross
// check; any count or name mismatch aborts the run.
package splice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/internal/grammar"
	"github.com/gnolang/keyfmt/internal/grid"
	"github.com/gnolang/keyfmt/internal/layout"
	"github.com/gnolang/keyfmt/internal/reformat"
	"github.com/gnolang/keyfmt/internal/types"
)

// Engine formats documents according to one configuration.
// It is safe for concurrent use by multiple goroutines.
type Engine struct {
	cfg         types.Config
	provider    grammar.Provider
	extractor   *layout.Extractor
	reformatter reformat.Reformatter
	logger      *zap.Logger
}

// New creates an engine. A nil reformatter disables reformatting.
func New(cfg types.Config, provider grammar.Provider, r reformat.Reformatter, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = reformat.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	extractor, err := layout.NewExtractor(provider, cfg.QueryPattern(), cfg.NamePrefix)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:         cfg,
		provider:    provider,
		extractor:   extractor,
		reformatter: r,
		logger:      logger,
	}, nil
}

func (e *Engine) Close() { e.extractor.Close() }

// Render returns src with every layout grid re-rendered and everything else
// left to the reformatter. src is never modified.
func (e *Engine) Render(ctx context.Context, src []byte) ([]byte, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: input document", types.ErrEncoding)
	}

	queue, region, err := e.extract(ctx, src)
	if err != nil {
		return nil, err
	}

	formatted, err := e.reformat(ctx, src, region)
	if err != nil {
		return nil, err
	}

	return e.splice(ctx, formatted, queue)
}

// extract is the first pass: it queues one grid per recognized invocation
// of the original text and returns the anchor region it searched, if any.
func (e *Engine) extract(ctx context.Context, src []byte) (*Queue, *types.Span, error) {
	tree, err := e.provider.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	region, err := e.region(tree)
	if err != nil {
		return nil, nil, err
	}

	queue := NewQueue()
	it := e.extractor.Matches(tree, region)
	defer it.Close()
	for it.Next() {
		m := it.Match()
		g, err := grid.Build(m.Name, m.Args)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", m.Call.StartRow+1, err)
		}
		queue.Push(g)
	}
	if err := it.Err(); err != nil {
		if !errors.Is(err, types.ErrNoMatch) {
			return nil, nil, err
		}
		e.logger.Debug("no layout invocation found", zap.String("prefix", e.cfg.NamePrefix))
	}
	e.logger.Debug("queued layout grids", zap.Int("count", it.Count()))

	return queue, region, nil
}

// reformat runs the collaborator over the whole document, or only over the
// anchor region when one is configured.
func (e *Engine) reformat(ctx context.Context, src []byte, region *types.Span) ([]byte, error) {
	part := src
	if region != nil {
		part = src[region.StartByte:region.EndByte]
	}

	res, err := e.reformatter.Reformat(ctx, part)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(res.Output) {
		return nil, fmt.Errorf("%w: reformatter output", types.ErrEncoding)
	}
	e.logger.Debug("reformat pass done", zap.Stringer("status", res.Status))

	if region == nil {
		return res.Output, nil
	}

	out := make([]byte, 0, len(src)-region.Len()+len(res.Output))
	out = append(out, src[:region.StartByte]...)
	out = append(out, res.Output...)
	out = append(out, src[region.EndByte:]...)
	return out, nil
}

// splice is the second pass over the reformatted text.
func (e *Engine) splice(ctx context.Context, src []byte, queue *Queue) ([]byte, error) {
	tree, err := e.provider.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	region, err := e.region(tree)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(src) + len(src)/4)

	last := 0
	it := e.extractor.Matches(tree, region)
	defer it.Close()
	for it.Next() {
		m := it.Match()
		start, end := m.Arguments.StartByte, m.Arguments.EndByte
		if e.cfg.SpliceMode == types.SpliceCall {
			start, end = m.Call.StartByte, m.Call.EndByte
		}
		out.Write(src[last:start])

		g, ok := queue.Pop()
		if !ok {
			return nil, fmt.Errorf("%w: %s at line %d has no grid from the first pass",
				types.ErrQueueExhausted, m.Name, m.Call.StartRow+1)
		}
		if g.Name != m.Name {
			return nil, fmt.Errorf("%w: expected %s, found %s at line %d",
				types.ErrIdentifierMismatch, g.Name, m.Name, m.Call.StartRow+1)
		}

		indent := m.Indent
		if indent == "" {
			indent = e.cfg.IndentFallback
		}
		if e.cfg.SpliceMode == types.SpliceCall {
			out.WriteString(m.Name)
		}
		out.WriteString(grid.Render(g, grid.Options{Indent: indent, GapWidth: e.cfg.GapWidth}))
		last = end

		e.logger.Debug("spliced layout",
			zap.String("name", m.Name),
			zap.Int("line", m.Call.StartRow+1),
			zap.Int("rows", len(g.Rows)),
			zap.Int("columns", g.Columns()))
	}
	if err := it.Err(); err != nil && !errors.Is(err, types.ErrNoMatch) {
		return nil, err
	}
	out.Write(src[last:])

	if n := queue.Len(); n > 0 {
		return nil, fmt.Errorf("%w: %d grid(s) have no invocation after reformatting", types.ErrQueueNotDrained, n)
	}
	return out.Bytes(), nil
}

func (e *Engine) region(tree grammar.Tree) (*types.Span, error) {
	if e.cfg.AnchorName == "" {
		return nil, nil
	}
	span, err := layout.LocateAnchor(tree, e.cfg.AnchorName)
	if err != nil {
		return nil, err
	}
	return &span, nil
}
