package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finops-claw-gang/api-parity/internal/config"
	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

type compareOptions struct {
	name           string
	oldURL         string
	newURL         string
	headers        []string
	output         string
	failOnMismatch bool
}

func newCompareCmd() *cobra.Command {
	var opts compareOptions
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare one old/new endpoint pair and write a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return compareOne(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "label for the comparison (required)")
	cmd.Flags().StringVar(&opts.oldURL, "old", "", "old API URL (required)")
	cmd.Flags().StringVar(&opts.newURL, "new", "", "new API URL (required)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "header sent to both APIs, as 'Key: Value' (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "HTML report path (default: timestamped file in PARITY_REPORT_DIR)")
	cmd.Flags().BoolVar(&opts.failOnMismatch, "fail-on-mismatch", false, "exit 1 when the payloads do not match")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func compareOne(cmd *cobra.Command, opts compareOptions) error {
	headers, err := config.ParseHeaders(opts.headers)
	if err != nil {
		return err
	}

	env, err := newRuntimeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	r := env.comparator.Run(cmd.Context(), shadow.Target{
		Name:    opts.name,
		OldURL:  opts.oldURL,
		NewURL:  opts.newURL,
		Headers: headers,
	})

	out := cmd.OutOrStdout()
	printResult(out, r)

	written, err := env.writeReport(opts.output, env.comparator.Results(), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "HTML report written: %s\n", written)

	return mismatchErr(opts.failOnMismatch, env.comparator.Summary())
}
