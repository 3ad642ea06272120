package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finops-claw-gang/api-parity/internal/config"
	"github.com/finops-claw-gang/api-parity/internal/report"
	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

type runOptions struct {
	output         string
	jsonPath       string
	concurrency    int
	failOnMismatch bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <suite.yml>",
		Short: "Run every comparison in a suite file and write a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "HTML report path (default: timestamped file in PARITY_REPORT_DIR)")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "also write a JSON report to this path")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "comparisons in flight (default: PARITY_CONCURRENCY)")
	cmd.Flags().BoolVar(&opts.failOnMismatch, "fail-on-mismatch", false, "exit 1 when any comparison does not match")
	return cmd
}

func runSuite(cmd *cobra.Command, path string, opts runOptions) error {
	env, err := newRuntimeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	suite, err := config.LoadSuite(path)
	if err != nil {
		return err
	}
	endpoints, err := suite.Resolve(env.cfg)
	if err != nil {
		return err
	}
	name := suite.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	targets := make([]shadow.Target, len(endpoints))
	for i, ep := range endpoints {
		targets[i] = shadow.Target{Name: ep.Name, OldURL: ep.OldURL, NewURL: ep.NewURL, Headers: ep.Headers}
	}
	concurrency := opts.concurrency
	if concurrency < 1 {
		concurrency = env.cfg.Concurrency
	}

	env.logger.Info("running suite", "suite", name, "comparisons", len(targets), "concurrency", concurrency)
	results := env.comparator.RunSuite(cmd.Context(), targets, concurrency)

	out := cmd.OutOrStdout()
	for _, r := range results {
		printResult(out, r)
	}

	now := time.Now()
	written, err := env.writeReport(opts.output, results, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "HTML report written: %s\n", written)

	if opts.jsonPath != "" {
		if err := writeJSONReport(opts.jsonPath, results, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "JSON report written: %s\n", opts.jsonPath)
	}

	summary := shadow.Summarize(results)
	printSummary(out, summary)
	env.publishSummary(cmd.Context(), name, summary)

	return mismatchErr(opts.failOnMismatch, summary)
}

func writeJSONReport(path string, results []shadow.Result, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := report.WriteJSON(f, results, now); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
