package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	core "github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
)

// DescribeMappingHandler returns a handler function for the describe-mapping tool
func DescribeMappingHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDescribeMapping(deps)
	}
}

func handleDescribeMapping(deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Metadata == nil {
		errMessage := "metadata registry is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	desc := deps.Metadata.Describe()
	slog.Info("describing mapping", "nodeTypes", len(desc.Nodes), "relationshipEntities", len(desc.RelationshipEntities))
	if len(desc.Nodes) == 0 {
		return mcp.NewToolResultText("No domain types are registered."), nil
	}
	return mcp.NewToolResultText(formatMappingAsMarkdown(desc)), nil
}

func formatMappingAsMarkdown(desc metadata.Description) string {
	var md strings.Builder

	md.WriteString("# Object Mapping\n\n")
	md.WriteString("## 1. Node Types\n\n")
	for _, node := range desc.Nodes {
		md.WriteString(fmt.Sprintf("### %s\n\n", node.Label))
		md.WriteString(fmt.Sprintf("*Go type:* `%s`\n\n", node.GoType))
		md.WriteString(fmt.Sprintf("*Labels:* `%s`", strings.Join(node.Labels, ":")))
		if node.DynamicLabels {
			md.WriteString(" plus dynamic labels")
		}
		md.WriteString("\n\n")
		if node.Views > 0 {
			md.WriteString(fmt.Sprintf("*Embeds:* %d mapped type(s)\n\n", node.Views))
		}

		if len(node.Relations) > 0 {
			md.WriteString("*Relations:*\n\n")
			for _, rel := range node.Relations {
				md.WriteString(fmt.Sprintf("  - `%s`: `%s`", rel.Name, relationPattern(node.Label, rel)))
				if rel.Many {
					md.WriteString(" (many)")
				}
				if rel.Link != "" {
					md.WriteString(fmt.Sprintf(" via `%s`", rel.Link))
				}
				md.WriteString("\n")
			}
			md.WriteString("\n")
		}
	}

	if len(desc.RelationshipEntities) > 0 {
		md.WriteString("## 2. Relationship Entities\n\n")
		for _, link := range desc.RelationshipEntities {
			md.WriteString(fmt.Sprintf("  - `(:%s)-[:%s]->(:%s)` mapped to `%s`\n", link.Start, link.Type, link.End, link.GoType))
		}
		md.WriteString("\n")
	}
	return md.String()
}

// relationPattern renders a relation as Cypher, e.g. (:Voter)-[:CANDIDATE_VOTED_FOR]->(:Candidate).
func relationPattern(owner string, rel metadata.RelationDescription) string {
	switch rel.Direction {
	case core.Incoming.String():
		return fmt.Sprintf("(:%s)<-[:%s]-(:%s)", owner, rel.Type, rel.Target)
	case core.Undirected.String():
		return fmt.Sprintf("(:%s)-[:%s]-(:%s)", owner, rel.Type, rel.Target)
	default:
		return fmt.Sprintf("(:%s)-[:%s]->(:%s)", owner, rel.Type, rel.Target)
	}
}
