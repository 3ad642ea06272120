package shadow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/finops-claw-gang/api-parity/internal/connectors/endpoint"
	"github.com/finops-claw-gang/api-parity/internal/observability"
)

const tracerName = "github.com/finops-claw-gang/api-parity/internal/shadow"

// Comparator fetches old/new endpoint pairs, compares their payloads and keeps
// every Result in the order it was produced.
type Comparator struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer

	mu      sync.Mutex
	results []Result
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithLogger sets the logger used for per-comparison log lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparator) { c.logger = logger }
}

// WithMetrics records fetch latencies and comparison outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Comparator) { c.metrics = m }
}

// WithTracerProvider sets the provider comparison spans are started on.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Comparator) { c.tracer = tp.Tracer(tracerName) }
}

// NewComparator creates a Comparator that fetches through f.
func NewComparator(f Fetcher, opts ...Option) *Comparator {
	c := &Comparator{fetcher: f, logger: slog.Default(), tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run compares a single target, records the Result and returns it.
func (c *Comparator) Run(ctx context.Context, t Target) Result {
	r := c.compare(ctx, t)
	c.record(r)
	return r
}

// RunSuite compares every target with at most concurrency comparisons in
// flight. Results are recorded and returned in target order.
func (c *Comparator) RunSuite(ctx context.Context, targets []Target, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	out := make([]Result, len(targets))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, t := range targets {
		g.Go(func() error {
			out[i] = c.compare(ctx, t)
			return nil
		})
	}
	_ = g.Wait() // compare reports failures as error Results

	c.record(out...)
	return out
}

// Results returns a copy of the recorded results.
func (c *Comparator) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Summary counts the recorded results.
func (c *Comparator) Summary() Summary {
	return Summarize(c.Results())
}

func (c *Comparator) record(rs ...Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, rs...)
}

func (c *Comparator) compare(ctx context.Context, t Target) Result {
	ctx, span := c.tracer.Start(ctx, "shadow.compare")
	defer span.End()
	span.SetAttributes(attribute.String("parity.name", t.Name))

	var oldResp, newResp *endpoint.Response
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.fetcher.Get(gctx, t.OldURL, t.Headers)
		if err != nil {
			return fmt.Errorf("old api: %w", err)
		}
		oldResp = resp
		return nil
	})
	g.Go(func() error {
		resp, err := c.fetcher.Get(gctx, t.NewURL, t.Headers)
		if err != nil {
			return fmt.Errorf("new api: %w", err)
		}
		newResp = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		return c.failed(ctx, t.Name, err)
	}

	oldDoc, err := decodeBody(oldResp)
	if err != nil {
		return c.failed(ctx, t.Name, fmt.Errorf("old api: %w", err))
	}
	newDoc, err := decodeBody(newResp)
	if err != nil {
		return c.failed(ctx, t.Name, fmt.Errorf("new api: %w", err))
	}

	oldStatus, newStatus := oldResp.StatusCode, newResp.StatusCode
	r := Result{
		Name:            t.Name,
		OldStatus:       &oldStatus,
		NewStatus:       &newStatus,
		OldResponseTime: seconds(oldResp.Elapsed),
		NewResponseTime: seconds(newResp.Elapsed),
		Match:           Equal(oldDoc, newDoc),
		Old:             oldDoc,
		New:             newDoc,
		Diff:            Diff(oldDoc, newDoc),
	}

	span.SetAttributes(
		attribute.Int("parity.old_status", oldStatus),
		attribute.Int("parity.new_status", newStatus),
		attribute.Bool("parity.match", r.Match),
	)
	if c.metrics != nil {
		c.metrics.RecordFetch(ctx, "old", oldStatus, oldResp.Elapsed)
		c.metrics.RecordFetch(ctx, "new", newStatus, newResp.Elapsed)
		c.metrics.RecordComparison(ctx, outcome(r))
	}
	c.logger.Info("comparison finished",
		"name", t.Name,
		"old_status", oldStatus,
		"new_status", newStatus,
		"match", r.Match,
		"diff_lines", len(r.Diff),
	)
	return r
}

// failed marks the comparison span as errored, logs, and builds the error
// variant Result.
func (c *Comparator) failed(ctx context.Context, name string, err error) Result {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.logger.Error("comparison failed", "name", name, "error", err)
	if c.metrics != nil {
		c.metrics.RecordComparison(ctx, "error")
	}
	return Result{Name: name, Error: err.Error()}
}

// decodeBody returns nil for non-200 responses. A 200 with a malformed body is
// an error.
func decodeBody(resp *endpoint.Response) (*Document, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	doc, err := ParseDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	return doc, nil
}

func outcome(r Result) string {
	switch {
	case r.Failed():
		return "error"
	case r.Match:
		return "match"
	default:
		return "mismatch"
	}
}
