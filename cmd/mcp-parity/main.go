// Command mcp-parity runs the MCP tool server for old/new API comparisons.
// Uses stdio transport for integration with AI assistants; logs go to stderr.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finops-claw-gang/api-parity/internal/config"
	"github.com/finops-claw-gang/api-parity/internal/connectors/endpoint"
	"github.com/finops-claw-gang/api-parity/internal/mcpserver"
	"github.com/finops-claw-gang/api-parity/internal/observability"
	"github.com/finops-claw-gang/api-parity/internal/ratelimit"
	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := endpoint.New(cfg.Timeout, ratelimit.NewHostLimiter(cfg.RateLimit, 1))
	comparator := shadow.NewComparator(client, shadow.WithLogger(logger))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "api-parity",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, comparator, cfg.ReportDir)

	logger.Info("mcp server starting", "transport", "stdio", "report_dir", cfg.ReportDir)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("mcp server error", "error", err)
		stop()
		os.Exit(1)
	}
}
