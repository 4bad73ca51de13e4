// Package pipeline opens sheets: it resolves a payload, validates it against
// the sheet's schema, enriches it, attaches action keys and publishes the
// result to the shared state slot. A failure at any step leaves the slot as
// it was.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/oddiville/sheets/internal/actions"
	"github.com/oddiville/sheets/internal/cache"
	"github.com/oddiville/sheets/internal/enrich"
	"github.com/oddiville/sheets/internal/fetch"
	"github.com/oddiville/sheets/internal/payload"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/sheet"
	"github.com/oddiville/sheets/internal/state"
)

const instrumentationName = "github.com/oddiville/sheets/internal/pipeline"

var (
	ErrUnknownKind = schema.ErrUnknownKind
	ErrValidation  = schema.ErrValidation
	ErrFetch       = errors.New("fetching sheet payload failed")
	// ErrSuperseded is returned when a later open or a close overtook this
	// open before it could publish.
	ErrSuperseded = errors.New("sheet open was superseded")
)

// Request asks for one sheet. Payload, when set, is used verbatim instead of
// the static table, cache or fetcher.
type Request struct {
	ID            string          `json:"id"`
	Kind          sheet.Kind      `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Mode          string          `json:"mode,omitempty"`
	MainSelection string          `json:"mainSelection,omitempty"`
	SubSelection  string          `json:"subSelection,omitempty"`
	Color         sheet.Color     `json:"color,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Source records where a payload came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceStatic   Source = "static"
	SourceCache    Source = "cache"
	SourceFetch    Source = "fetch"
)

// Pipeline opens and closes sheets. It is safe for concurrent use.
type Pipeline struct {
	registry *schema.Registry
	fetcher  fetch.Fetcher
	slot     *state.Slot
	cache    cache.Store
	enricher *enrich.Enricher
	static   func(sheet.Kind) ([]byte, bool)

	tracer   trace.Tracer
	opens    metric.Int64Counter
	failures metric.Int64Counter

	inflight sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache stores fetched payloads in c and consults it before fetching.
func WithCache(c cache.Store) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithEnricher replaces the default wall-clock enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithStatic replaces the embedded static payload table.
func WithStatic(f func(sheet.Kind) ([]byte, bool)) Option {
	return func(p *Pipeline) { p.static = f }
}

// WithTracerProvider sets the provider spans are started from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) { p.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the provider counters are created from.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pipeline) { p.initMetrics(mp.Meter(instrumentationName)) }
}

// New creates a Pipeline. Without options it uses the embedded static
// payloads, no cache, and the global OpenTelemetry providers.
func New(registry *schema.Registry, fetcher fetch.Fetcher, slot *state.Slot, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		fetcher:  fetcher,
		slot:     slot,
		enricher: enrich.New(),
		static:   payload.Static,
		tracer:   otel.Tracer(instrumentationName),
	}
	p.initMetrics(otel.Meter(instrumentationName))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) initMetrics(m metric.Meter) {
	var err error
	p.opens, err = m.Int64Counter("sheets.opens.total",
		metric.WithDescription("Sheets published to the state slot"),
		metric.WithUnit("{sheet}"),
	)
	if err != nil {
		log.Printf("pipeline: creating opens counter: %v", err)
	}
	p.failures, err = m.Int64Counter("sheets.open_failures.total",
		metric.WithDescription("Sheet opens that did not publish"),
		metric.WithUnit("{sheet}"),
	)
	if err != nil {
		log.Printf("pipeline: creating failures counter: %v", err)
	}
}

// Open resolves, validates, enriches and publishes the requested sheet and
// returns the published config.
func (p *Pipeline) Open(ctx context.Context, req Request) (*sheet.Config, error) {
	ctx, span := p.tracer.Start(ctx, "sheet.open", trace.WithAttributes(
		attribute.String("sheet.kind", string(req.Kind)),
		attribute.String("sheet.id", req.ID),
	))
	defer span.End()

	cfg, src, err := p.open(ctx, req)
	if src != "" {
		span.SetAttributes(attribute.String("sheet.source", string(src)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.count(ctx, p.failures, req.Kind, src, reason(err))
		return nil, err
	}
	p.count(ctx, p.opens, req.Kind, src, "ok")
	return cfg, nil
}

func (p *Pipeline) open(ctx context.Context, req Request) (*sheet.Config, Source, error) {
	if !p.registry.Has(req.Kind) {
		log.Printf("pipeline: no sheet registered for kind %q (id %s)", req.Kind, req.ID)
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	gen := p.slot.Begin()

	raw, src, err := p.resolve(ctx, req)
	if err != nil {
		log.Printf("pipeline: %s %s: %v", req.Kind, req.ID, err)
		return nil, src, fmt.Errorf("%w: %s %s: %w", ErrFetch, req.Kind, req.ID, err)
	}

	body, err := p.registry.Validate(req.Kind, raw)
	if err != nil {
		p.logValidation(req, src, err)
		if src == SourceCache {
			p.evict(ctx, req)
		}
		return nil, src, err
	}

	p.enricher.Sections(body.Sections)

	buttons, err := actions.Attach(req.Kind, body.Buttons)
	if err != nil {
		log.Printf("pipeline: %s %s: %v", req.Kind, req.ID, err)
		return nil, src, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if src == SourceFetch {
		p.store(ctx, req, raw)
	}

	cfg := &sheet.Config{
		Sections: body.Sections,
		Buttons:  buttons,
		Meta: sheet.Meta{
			ID:            req.ID,
			Kind:          req.Kind,
			Mode:          req.Mode,
			MainSelection: req.MainSelection,
			SubSelection:  req.SubSelection,
			Color:         req.Color,
			Data:          req.Data,
		},
	}
	if !p.slot.Publish(gen, cfg) {
		log.Printf("pipeline: %s %s superseded before publish", req.Kind, req.ID)
		return nil, src, ErrSuperseded
	}
	log.Printf("pipeline: opened %s %s from %s (%d sections, %d buttons)",
		req.Kind, req.ID, src, len(cfg.Sections), len(cfg.Buttons))
	return cfg, src, nil
}

// resolve picks the payload: override, then static table, then cache, then
// fetcher.
func (p *Pipeline) resolve(ctx context.Context, req Request) ([]byte, Source, error) {
	if len(req.Payload) > 0 {
		return req.Payload, SourceOverride, nil
	}
	if raw, ok := p.static(req.Kind); ok {
		return raw, SourceStatic, nil
	}
	if p.cache != nil {
		raw, ok, err := p.cache.Get(ctx, cache.Key{ID: req.ID, Kind: req.Kind})
		if err != nil {
			log.Printf("pipeline: cache read for %s %s: %v", req.Kind, req.ID, err)
		} else if ok {
			return raw, SourceCache, nil
		}
	}
	if p.fetcher == nil {
		return nil, SourceFetch, errors.New("no fetcher configured")
	}
	raw, err := p.fetcher.FetchSheet(ctx, req.ID, req.Kind)
	return raw, SourceFetch, err
}

func (p *Pipeline) store(ctx context.Context, req Request, raw []byte) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, cache.Key{ID: req.ID, Kind: req.Kind}, raw); err != nil {
		log.Printf("pipeline: cache write for %s %s: %v", req.Kind, req.ID, err)
	}
}

func (p *Pipeline) evict(ctx context.Context, req Request) {
	if err := p.cache.Delete(ctx, cache.Key{ID: req.ID, Kind: req.Kind}); err != nil {
		log.Printf("pipeline: cache evict for %s %s: %v", req.Kind, req.ID, err)
	}
}

func (p *Pipeline) logValidation(req Request, src Source, err error) {
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		log.Printf("pipeline: %s %s (%s) invalid: %v", req.Kind, req.ID, src, err)
		return
	}
	for _, f := range ve.Fields {
		log.Printf("pipeline: %s %s (%s) invalid: %s", req.Kind, req.ID, src, f)
	}
}

// Go opens a sheet in the background, detached from ctx's cancellation.
// Failures are logged and dropped.
func (p *Pipeline) Go(ctx context.Context, req Request) {
	ctx = context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if _, err := p.Open(ctx, req); err != nil {
			log.Printf("pipeline: background open of %s %s dropped: %v", req.Kind, req.ID, err)
		}
	}()
}

// Wait blocks until every open started with Go has finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// Close dismisses the current sheet and cancels the effect of any open
// still in flight.
func (p *Pipeline) Close() {
	if p.slot.Clear() {
		log.Printf("pipeline: sheet closed")
	}
}

func (p *Pipeline) count(ctx context.Context, c metric.Int64Counter, kind sheet.Kind, src Source, result string) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sheet.kind", string(kind)),
		attribute.String("sheet.source", string(src)),
		attribute.String("result", result),
	))
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	default:
		return "error"
	}
}
