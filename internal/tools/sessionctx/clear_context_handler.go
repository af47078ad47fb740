package sessionctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
)

// ClearContextHandler returns the tool handler function for clear-context
func ClearContextHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Session == nil {
			errMessage := "session is not initialized"
			slog.Error(errMessage)
			return mcp.NewToolResultError(errMessage), nil
		}
		before := deps.Session.Context().Stats()
		deps.Session.Clear()
		slog.Info("context cleared", "session", deps.Session.ID(), "nodes", before.Nodes)
		return mcp.NewToolResultText(fmt.Sprintf("Cleared %d nodes and %d relationships from session %s.",
			before.Nodes, before.Relationships, deps.Session.ID())), nil
	}
}
