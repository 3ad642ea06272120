// Command api-parity compares the JSON responses of an old and a new API and
// writes an HTML report of the differences.
//
// Usage:
//
//	api-parity run suite.yml [--output report.html] [--json results.json]
//	api-parity compare --name N --old URL --new URL [-H 'Key: Value']...
//	api-parity diff old.json new.json
//	api-parity normalize payload.json
//
// Exit code 0 = success. Exit code 1 = command error, or a mismatch when
// --fail-on-mismatch is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const serviceName = "api-parity"

var errMismatch = errors.New("one or more comparisons did not match")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Compare JSON responses of an old and a new API",
		Long: `api-parity fetches the same resource from an old and a new API,
normalizes both JSON payloads, and reports whether they match along with a
unified diff and an HTML report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCompareCmd(), newDiffCmd(), newNormalizeCmd())
	return root
}
