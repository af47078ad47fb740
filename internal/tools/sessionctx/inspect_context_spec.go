package sessionctx

import "github.com/mark3labs/mcp-go/mcp"

// InspectContextInput defines the input parameters for the inspect-context tool
type InspectContextInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"default=100,description=Maximum number of relationships to list. 0 lists the default of 100."`
}

func InspectContextSpec() mcp.Tool {
	return mcp.NewTool("inspect-context",
		mcp.WithDescription(`Reports what the server's session currently tracks.

Returns the session id, the number of mapped nodes, persisted relationships and
relationship entities, and the tracked relationships themselves written as
(start)-[TYPE]->(end). These are the relationships the next save compares against.`),
		mcp.WithInputSchema[InspectContextInput](),
		mcp.WithTitleAnnotation("Inspect Mapping Context"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
