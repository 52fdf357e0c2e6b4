package charts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Messages written into a chart's error element.
const (
	MessageLoadFailed   = "Error loading chart data"
	MessageRenderFailed = "Error rendering chart data"
)

// ErrorSurface shows a human-readable message in a page element.
type ErrorSurface interface {
	ShowError(ctx context.Context, elementID, message string) error
}

// Renderer is the external chart-drawing capability.
type Renderer interface {
	Render(ctx context.Context, d Descriptor) error
}

// Outcome is the result of loading one chart.
type Outcome struct {
	SourceID string
	MountID  string
	Strategy string
	Rendered bool
	Err      error
}

// Report collects the outcome of every chart in a load.
type Report struct {
	Outcomes []Outcome
}

// Rendered counts charts handed to the renderer successfully.
func (r Report) Rendered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Rendered {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that did not render.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Rendered {
			out = append(out, o)
		}
	}
	return out
}

// Loader resolves each contract's series and renders it once.
type Loader struct {
	contracts  []Contract
	chain      Chain
	surface    ErrorSurface
	renderer   Renderer
	logger     *zap.Logger
	concurrent bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithContracts replaces the default dashboard contracts.
func WithContracts(contracts ...Contract) Option {
	return func(l *Loader) { l.contracts = contracts }
}

// WithChain replaces the default resolution chain.
func WithChain(ch Chain) Option {
	return func(l *Loader) { l.chain = ch }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency loads charts in parallel. Error elements are disjoint per
// chart, so writers never overlap.
func WithConcurrency(enabled bool) Option {
	return func(l *Loader) { l.concurrent = enabled }
}

// NewLoader builds a loader over a page source.
func NewLoader(src Source, surface ErrorSurface, renderer Renderer, opts ...Option) *Loader {
	l := &Loader{
		contracts: DefaultContracts(),
		chain:     DefaultChain(src),
		surface:   surface,
		renderer:  renderer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run performs one load of every chart. A failure in one chart never blocks
// another.
func (l *Loader) Run(ctx context.Context) Report {
	outcomes := make([]Outcome, len(l.contracts))

	if !l.concurrent {
		for i, c := range l.contracts {
			outcomes[i] = l.load(ctx, c)
		}
		return Report{Outcomes: outcomes}
	}

	var g errgroup.Group
	for i, c := range l.contracts {
		g.Go(func() error {
			outcomes[i] = l.load(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return Report{Outcomes: outcomes}
}

func (l *Loader) load(ctx context.Context, c Contract) Outcome {
	out := Outcome{SourceID: c.SourceID, MountID: c.MountID}
	log := l.logger.With(zap.String("source", c.SourceID), zap.String("mount", c.MountID))

	if err := c.Validate(); err != nil {
		out.Err = err
		log.Error("invalid chart contract", zap.Error(err))
		return out
	}

	res, err := l.chain.Resolve(ctx, c)
	if err != nil {
		out.Err = err
		log.Error("chart data not resolved", zap.Error(err))
		l.showError(ctx, log, c, MessageLoadFailed)
		return out
	}
	for _, a := range res.Attempts {
		if !errors.Is(a.Err, ErrSourceMissing) {
			log.Warn("falling back after strategy failure", zap.String("strategy", a.Strategy), zap.Error(a.Err))
		}
	}
	out.Strategy = res.Strategy
	log.Debug("chart data received",
		zap.String("strategy", res.Strategy),
		zap.Stringer("series", res.Series),
		zap.Int64("total", res.Series.Total()),
		zap.Int64("max", res.Series.Max()),
	)

	d, err := BuildDescriptor(c, res.Series)
	if err != nil {
		out.Err = err
		log.Error("chart descriptor rejected", zap.Error(err))
		l.showError(ctx, log, c, MessageLoadFailed)
		return out
	}

	if err := l.renderer.Render(ctx, d); err != nil {
		out.Err = fmt.Errorf("render %s: %w", c.MountID, err)
		log.Error("chart render failed", zap.Error(err))
		l.showError(ctx, log, c, MessageRenderFailed)
		return out
	}
	out.Rendered = true
	log.Info("chart rendered", zap.String("kind", string(c.Kind)), zap.Int("points", len(d.Labels)))
	return out
}

func (l *Loader) showError(ctx context.Context, log *zap.Logger, c Contract, msg string) {
	if l.surface == nil {
		return
	}
	if err := l.surface.ShowError(ctx, c.ErrorElementID, msg); err != nil {
		log.Warn("could not show chart error", zap.String("element", c.ErrorElementID), zap.Error(err))
	}
}
