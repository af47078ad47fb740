package admin

import "github.com/mark3labs/mcp-go/mcp"

func PurgeDatabaseSpec() mcp.Tool {
	return mcp.NewTool("purge-database",
		mcp.WithDescription(`Deletes every node and relationship in the configured database and clears the
server's session.

This cannot be undone. It is not available when the server runs in read-only mode.`),
		mcp.WithTitleAnnotation("Purge Database"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
