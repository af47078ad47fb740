package sessionctx

import "github.com/mark3labs/mcp-go/mcp"

func ClearContextSpec() mcp.Tool {
	return mcp.NewTool("clear-context",
		mcp.WithDescription(`Forgets every entity and relationship the server's session tracks.

The database is not touched. Entities loaded afterwards are mapped to new objects.`),
		mcp.WithTitleAnnotation("Clear Mapping Context"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
