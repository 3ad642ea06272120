// Package mcpserver exposes endpoint comparisons via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finops-claw-gang/api-parity/internal/report"
	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

// RegisterTools registers all parity MCP tools on the given server. Reports
// written without an explicit path land in reportDir.
func RegisterTools(server *mcp.Server, c *shadow.Comparator, reportDir string) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compare_endpoints",
			Description: "Fetch an old and a new endpoint, compare the JSON payloads and record the result",
		},
		compareEndpointsHandler(c),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_results",
			Description: "List comparison results recorded in this session with a summary",
		},
		listResultsHandler(c),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "write_report",
			Description: "Write the recorded results to an HTML report file",
		},
		writeReportHandler(c, reportDir, time.Now),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "diff_payloads",
			Description: "Compare two JSON payloads offline and return the match flag and unified diff",
		},
		diffPayloadsHandler(),
	)
}

type compareInput struct {
	Name    string            `json:"name" jsonschema:"label for this comparison"`
	OldURL  string            `json:"old_url" jsonschema:"URL of the old API"`
	NewURL  string            `json:"new_url" jsonschema:"URL of the new API"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"headers sent to both APIs"`
}

func compareEndpointsHandler(c *shadow.Comparator) mcp.ToolHandlerFor[compareInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input compareInput) (*mcp.CallToolResult, any, error) {
		if input.Name == "" || input.OldURL == "" || input.NewURL == "" {
			return errorResult("name, old_url and new_url are required"), nil, nil
		}

		r := c.Run(ctx, shadow.Target{
			Name:    input.Name,
			OldURL:  input.OldURL,
			NewURL:  input.NewURL,
			Headers: input.Headers,
		})
		return textResult(r)
	}
}

type listResultsInput struct {
	MismatchedOnly bool `json:"mismatched_only,omitempty" jsonschema:"only return results that did not match"`
}

type listResultsOutput struct {
	Summary shadow.Summary  `json:"summary"`
	Results []shadow.Result `json:"results"`
}

func listResultsHandler(c *shadow.Comparator) mcp.ToolHandlerFor[listResultsInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input listResultsInput) (*mcp.CallToolResult, any, error) {
		results := c.Results()
		out := listResultsOutput{Summary: shadow.Summarize(results), Results: []shadow.Result{}}
		for _, r := range results {
			if input.MismatchedOnly && r.Match {
				continue
			}
			out.Results = append(out.Results, r)
		}
		return textResult(out)
	}
}

type writeReportInput struct {
	Path string `json:"path,omitempty" jsonschema:"report file path; a timestamped name is used when empty"`
}

func writeReportHandler(c *shadow.Comparator, reportDir string, now func() time.Time) mcp.ToolHandlerFor[writeReportInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input writeReportInput) (*mcp.CallToolResult, any, error) {
		ts := now()
		path := input.Path
		if path == "" {
			path = filepath.Join(reportDir, report.DefaultPath(ts))
		}

		results := c.Results()
		written, err := report.WriteHTML(path, results, ts)
		if err != nil {
			return nil, nil, fmt.Errorf("write_report: %w", err)
		}

		return textResult(map[string]any{
			"path":    written,
			"summary": shadow.Summarize(results),
		})
	}
}

type diffInput struct {
	Old string `json:"old" jsonschema:"old JSON payload as text"`
	New string `json:"new" jsonschema:"new JSON payload as text"`
}

type diffOutput struct {
	Match bool     `json:"data_match"`
	Diff  []string `json:"diff"`
}

func diffPayloadsHandler() mcp.ToolHandlerFor[diffInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input diffInput) (*mcp.CallToolResult, any, error) {
		oldDoc, err := shadow.ParseDocument([]byte(input.Old))
		if err != nil {
			return errorResult("old: " + err.Error()), nil, nil
		}
		newDoc, err := shadow.ParseDocument([]byte(input.New))
		if err != nil {
			return errorResult("new: " + err.Error()), nil, nil
		}

		return textResult(diffOutput{
			Match: shadow.Equal(oldDoc, newDoc),
			Diff:  shadow.Diff(oldDoc, newDoc),
		})
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
