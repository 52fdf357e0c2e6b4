package charts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lessonpanel/internal/series"
)

// Source is the read side of a page.
type Source interface {
	// Global returns the JSON value of a server-injected page variable.
	Global(ctx context.Context, name string) (json.RawMessage, bool, error)
	// Attribute returns an attribute of the element with the given id.
	Attribute(ctx context.Context, elementID, name string) (string, bool, error)
	// Text returns the text content of the element with the given id.
	Text(ctx context.Context, elementID string) (string, bool, error)
}

// Provider is one data-resolution strategy.
type Provider interface {
	Name() string
	TryResolve(ctx context.Context, c Contract) (series.Series, error)
}

// Strategy names, also reported in load outcomes.
const (
	StrategyGlobal    = "global-variable"
	StrategyAttribute = "data-attribute"
	StrategyDebug     = "debug-payload"
)

// GlobalVariable reads the series from a page variable named after the
// contract's SourceID.
type GlobalVariable struct {
	Source Source
}

func (GlobalVariable) Name() string { return StrategyGlobal }

func (p GlobalVariable) TryResolve(ctx context.Context, c Contract) (series.Series, error) {
	raw, ok, err := p.Source.Global(ctx, c.SourceID)
	if err != nil {
		return series.Series{}, fmt.Errorf("read global %s: %w", c.SourceID, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if !ok || len(trimmed) == 0 || string(trimmed) == "undefined" {
		return series.Series{}, ErrSourceMissing
	}
	return decode(StrategyGlobal, c.SourceID, trimmed)
}

// DataAttribute reads serialized JSON from the mount element's data attribute.
type DataAttribute struct {
	Source Source
}

func (DataAttribute) Name() string { return StrategyAttribute }

func (p DataAttribute) TryResolve(ctx context.Context, c Contract) (series.Series, error) {
	if c.DataAttribute == "" {
		return series.Series{}, ErrSourceMissing
	}
	text, ok, err := p.Source.Attribute(ctx, c.MountID, c.DataAttribute)
	if err != nil {
		return series.Series{}, fmt.Errorf("read %s[%s]: %w", c.MountID, c.DataAttribute, err)
	}
	if !ok {
		return series.Series{}, ErrSourceMissing
	}
	return decode(StrategyAttribute, c.SourceID, []byte(text))
}

// DebugPayload reads serialized JSON from the hidden debug element.
type DebugPayload struct {
	Source Source
}

func (DebugPayload) Name() string { return StrategyDebug }

func (p DebugPayload) TryResolve(ctx context.Context, c Contract) (series.Series, error) {
	if c.DebugElementID == "" {
		return series.Series{}, ErrSourceMissing
	}
	text, ok, err := p.Source.Text(ctx, c.DebugElementID)
	if err != nil {
		return series.Series{}, fmt.Errorf("read #%s: %w", c.DebugElementID, err)
	}
	if !ok {
		return series.Series{}, ErrSourceMissing
	}
	return decode(StrategyDebug, c.SourceID, []byte(strings.TrimSpace(text)))
}

func decode(strategy, sourceID string, data []byte) (series.Series, error) {
	s, err := series.Decode(data)
	if errors.Is(err, series.ErrNull) {
		return series.Series{}, ErrSourceMissing
	}
	if err != nil {
		return series.Series{}, &DecodeError{Strategy: strategy, SourceID: sourceID, Err: err}
	}
	return s, nil
}

// Chain tries providers in order and stops at the first success.
type Chain []Provider

// DefaultChain is global variable, then data attribute, then debug payload.
func DefaultChain(src Source) Chain {
	return Chain{
		GlobalVariable{Source: src},
		DataAttribute{Source: src},
		DebugPayload{Source: src},
	}
}

// Resolution is a successfully resolved series and the strategy that won.
type Resolution struct {
	Series   series.Series
	Strategy string
	// Attempts holds the strategies that failed before the winner.
	Attempts []Attempt
}

// Resolve walks the chain. The error is a *ResolutionError unless ctx ended.
func (ch Chain) Resolve(ctx context.Context, c Contract) (Resolution, error) {
	var attempts []Attempt
	for _, p := range ch {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}
		s, err := p.TryResolve(ctx, c)
		if err == nil {
			return Resolution{Series: s, Strategy: p.Name(), Attempts: attempts}, nil
		}
		attempts = append(attempts, Attempt{Strategy: p.Name(), Err: err})
	}
	return Resolution{}, &ResolutionError{SourceID: c.SourceID, Attempts: attempts}
}

func (ch Chain) Name() string {
	names := make([]string, len(ch))
	for i, p := range ch {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// TryResolve lets a Chain nest inside another Chain.
func (ch Chain) TryResolve(ctx context.Context, c Contract) (series.Series, error) {
	res, err := ch.Resolve(ctx, c)
	return res.Series, err
}
