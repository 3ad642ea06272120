package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

func newDiffCmd() *cobra.Command {
	var failOnMismatch bool
	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two saved JSON payloads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			newDoc, err := readDocument(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			match := shadow.Equal(oldDoc, newDoc)
			fmt.Fprintf(out, "Data match: %s\n", matchMark(match))
			for _, line := range shadow.Diff(oldDoc, newDoc) {
				fmt.Fprintln(out, line)
			}
			if failOnMismatch && !match {
				return errMismatch
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnMismatch, "fail-on-mismatch", false, "exit 1 when the payloads do not match")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file.json>",
		Short: "Print the normalized form of a JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), shadow.Pretty(shadow.Normalize(doc.Value())))
			return nil
		},
	}
}

func readDocument(path string) (*shadow.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := shadow.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
