package mapping_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeMappingHandler(t *testing.T) {
	t.Run("registered domain", func(t *testing.T) {
		handler := mapping.DescribeMappingHandler(&tools.ToolDependencies{Metadata: domain.MustNewRegistry()})
		result, err := handler(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		require.False(t, result.IsError)

		text := result.Content[0].(mcp.TextContent).Text
		assert.Contains(t, text, "### Candidate")
		assert.Contains(t, text, "`Candidate:Voter`")
		assert.Contains(t, text, "`votedFor`: `(:Voter)-[:CANDIDATE_VOTED_FOR]->(:Candidate)`")
		assert.Contains(t, text, "`reachable`: `(:World)-[:REACHABLE_BY_ROCKET]-(:World)` (many)")
		assert.Contains(t, text, "`ratings`: `(:Movie)<-[:RATED]-(:Person)` (many) via `*cinema.Rating`")
		assert.Contains(t, text, "`(:Person)-[:RATED]->(:Movie)` mapped to `*cinema.Rating`")
		assert.Contains(t, text, "plus dynamic labels")
	})

	t.Run("empty registry", func(t *testing.T) {
		handler := mapping.DescribeMappingHandler(&tools.ToolDependencies{Metadata: metadata.NewRegistry()})
		result, err := handler(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "No domain types are registered.", result.Content[0].(mcp.TextContent).Text)
	})

	t.Run("missing registry", func(t *testing.T) {
		handler := mapping.DescribeMappingHandler(&tools.ToolDependencies{})
		result, err := handler(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
