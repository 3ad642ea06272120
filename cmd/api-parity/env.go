package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/finops-claw-gang/api-parity/internal/config"
	"github.com/finops-claw-gang/api-parity/internal/connectors/aws"
	"github.com/finops-claw-gang/api-parity/internal/connectors/aws/cloudwatch"
	"github.com/finops-claw-gang/api-parity/internal/connectors/endpoint"
	"github.com/finops-claw-gang/api-parity/internal/observability"
	"github.com/finops-claw-gang/api-parity/internal/ratelimit"
	"github.com/finops-claw-gang/api-parity/internal/report"
	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

// runtimeEnv is what the fetching commands share: configuration, a logger on
// stderr and a Comparator wired to the HTTP client.
type runtimeEnv struct {
	cfg        config.Config
	logger     *slog.Logger
	comparator *shadow.Comparator
	shutdown   func(context.Context) error
}

func newRuntimeEnv(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	logger := observability.InitLogger(cfg.LogLevel, cmd.ErrOrStderr())
	opts := []shadow.Option{shadow.WithLogger(logger)}
	shutdown := func(context.Context) error { return nil }

	if cfg.OTelEnabled {
		stopTracer, err := observability.InitTracer(cmd.Context(), serviceName)
		if err != nil {
			return nil, err
		}
		stopMeter, err := observability.InitMeter(cmd.Context(), serviceName)
		if err != nil {
			_ = stopTracer(cmd.Context())
			return nil, err
		}
		shutdown = func(ctx context.Context) error {
			return errors.Join(stopMeter(ctx), stopTracer(ctx))
		}

		metrics, err := observability.NewMetrics()
		if err != nil {
			return nil, err
		}
		opts = append(opts, shadow.WithMetrics(metrics))
	}

	client := endpoint.New(cfg.Timeout, ratelimit.NewHostLimiter(cfg.RateLimit, 1))
	return &runtimeEnv{
		cfg:        cfg,
		logger:     logger,
		comparator: shadow.NewComparator(client, opts...),
		shutdown:   shutdown,
	}, nil
}

func (e *runtimeEnv) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.shutdown(ctx); err != nil {
		e.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// writeReport writes the HTML report to output, or to a timestamped file in
// the configured report directory when output is empty.
func (e *runtimeEnv) writeReport(output string, results []shadow.Result, now time.Time) (string, error) {
	if output == "" {
		output = filepath.Join(e.cfg.ReportDir, report.DefaultPath(now))
	}
	return report.WriteHTML(output, results, now)
}

// publishSummary sends the run summary to CloudWatch when a namespace is
// configured. Failures are logged, not returned.
func (e *runtimeEnv) publishSummary(ctx context.Context, suite string, s shadow.Summary) {
	if e.cfg.CloudWatchNamespace == "" {
		return
	}
	awsCfg, err := aws.LoadConfig(ctx, e.cfg)
	if err != nil {
		e.logger.Warn("cloudwatch publish skipped", "error", err)
		return
	}
	if err := cloudwatch.New(awsCfg).PublishSummary(ctx, e.cfg.CloudWatchNamespace, suite, s); err != nil {
		e.logger.Warn("cloudwatch publish failed", "error", err)
		return
	}
	e.logger.Info("cloudwatch summary published", "namespace", e.cfg.CloudWatchNamespace, "suite", suite)
}

// printResult writes the per-comparison console block.
func printResult(w io.Writer, r shadow.Result) {
	fmt.Fprintf(w, "API comparison: %s\n", r.Name)
	fmt.Fprintf(w, "Old API status: %s\n", statusLabel(r.OldStatus))
	fmt.Fprintf(w, "New API status: %s\n", statusLabel(r.NewStatus))
	fmt.Fprintf(w, "Data match: %s\n", matchMark(r.Match))
	if r.Failed() {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s shadow.Summary) {
	fmt.Fprintf(w, "Total: %d  Matched: %d  Mismatched: %d  Errors: %d\n", s.Total, s.Matched, s.Mismatched, s.Errors)
}

func statusLabel(code *int) string {
	if code == nil {
		return "Error"
	}
	return fmt.Sprint(*code)
}

func matchMark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func mismatchErr(failOnMismatch bool, s shadow.Summary) error {
	if failOnMismatch && s.Matched != s.Total {
		return errMismatch
	}
	return nil
}
