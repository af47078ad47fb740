package mapping

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func DescribeMappingSpec() mcp.Tool {
	return mcp.NewTool("describe-mapping",
		mcp.WithDescription(`
		Describe how the registered Go domain types map to the graph.

		Returns, for every mapped node type:
		- its primary label and the static labels it is stored with
		- whether it carries dynamic labels
		- its relation fields with relationship type, direction and target label

		followed by the relationship entities (relationships with their own
		properties) and the node types they connect.

		The description comes from the server's registry, not from the database,
		so it is available even when the database is empty.`),
		mcp.WithTitleAnnotation("Describe Object Mapping"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
