package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
)

// PurgeDatabaseHandler returns the tool handler function for purge-database
func PurgeDatabaseHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePurgeDatabase(ctx, deps)
	}
}

func handlePurgeDatabase(ctx context.Context, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Session == nil || deps.DBService == nil {
		errMessage := "database service is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	database := deps.DBService.GetDatabaseName()
	slog.Warn("purging database", "database", database)
	if err := deps.Session.PurgeDatabase(ctx); err != nil {
		slog.Error("failed to purge database", "database", database, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Database '%s' purged.", database)), nil
}
