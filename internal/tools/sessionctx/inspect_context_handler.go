package sessionctx

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
)

const defaultLimit = 100

// ContextReport is the output of inspect-context.
type ContextReport struct {
	SessionID     string        `json:"sessionId"`
	Stats         mapping.Stats `json:"stats"`
	Relationships []string      `json:"relationships"`
	Truncated     bool          `json:"truncated,omitempty"`
}

// InspectContextHandler returns the tool handler function for inspect-context
func InspectContextHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInspectContext(request, deps)
	}
}

func handleInspectContext(request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Session == nil {
		errMessage := "session is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	var args InspectContextInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	ctx := deps.Session.Context()
	rels := ctx.Relationships()
	report := ContextReport{
		SessionID:     deps.Session.ID(),
		Stats:         ctx.Stats(),
		Relationships: make([]string, 0, min(limit, len(rels))),
	}
	for i, rel := range rels {
		if i == limit {
			report.Truncated = true
			break
		}
		report.Relationships = append(report.Relationships, rel.String())
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("failed to encode context report", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
