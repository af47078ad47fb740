package entity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	db "github.com/mkd-neo4j/neo4j-ogm/internal/database/mocks"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/world"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/entity"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func worldsRecord() *neo4j.Record {
	return &neo4j.Record{Keys: []string{"p"}, Values: []any{dbtype.Path{
		Nodes: []dbtype.Node{
			{Id: 1, Labels: []string{"World"}, Props: map[string]any{"name": "earth", "moons": int64(1)}},
			{Id: 2, Labels: []string{"World"}, Props: map[string]any{"name": "mars", "moons": int64(2)}},
		},
		Relationships: []dbtype.Relationship{{Id: 9, StartId: 1, EndId: 2, Type: world.ReachableByRocket}},
	}}}
}

func newDeps(t *testing.T) (*tools.ToolDependencies, *db.MockService) {
	ctrl := gomock.NewController(t)
	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().GetDatabaseName().Return("neo4j").AnyTimes()
	meta := domain.MustNewRegistry()
	s := session.NewFactory(meta, mockDB, nil, session.DefaultConfig()).OpenSession()
	return &tools.ToolDependencies{DBService: mockDB, Metadata: meta, Session: s}, mockDB
}

func call(t *testing.T, deps *tools.ToolDependencies, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	handler := entity.LoadEntityHandler(deps)
	result, err := handler(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestLoadEntityHandler(t *testing.T) {
	t.Run("by label with filter", func(t *testing.T) {
		deps, mockDB := newDeps(t)
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), gomock.Any(), map[string]any{"p0": "earth"}).
			Return([]*neo4j.Record{worldsRecord()}, nil)

		result := call(t, deps, map[string]any{
			"label":   "World",
			"filters": []any{map[string]any{"property": "name", "operator": "EQUALS", "value": "earth"}},
		})
		require.False(t, result.IsError, result.Content)

		var nodes []entity.Node
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &nodes))
		require.Len(t, nodes, 1)
		assert.Equal(t, "1", nodes[0].ID)
		assert.Equal(t, []string{"World"}, nodes[0].Labels)
		assert.Equal(t, "earth", nodes[0].Properties["name"])
		require.Len(t, nodes[0].Relations["reachable"], 1)
		assert.Equal(t, "2", nodes[0].Relations["reachable"][0].Node)
		assert.Equal(t, "UNDIRECTED", nodes[0].Relations["reachable"][0].Direction)

		assert.Equal(t, 2, deps.Session.Context().Stats().Nodes, "loaded entities stay in the session")
	})

	t.Run("by id with depth", func(t *testing.T) {
		deps, mockDB := newDeps(t)
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), gomock.Any(), map[string]any{"id": int64(2)}).
			DoAndReturn(func(_ context.Context, query string, _ map[string]any) ([]*neo4j.Record, error) {
				assert.Contains(t, query, "[*0..]")
				return []*neo4j.Record{worldsRecord()}, nil
			})

		result := call(t, deps, map[string]any{"id": 2, "depth": -1, "label": "Movie"})
		assert.True(t, result.IsError, "the node is not a movie")
	})

	t.Run("neither id nor label", func(t *testing.T) {
		deps, _ := newDeps(t)
		assert.True(t, call(t, deps, map[string]any{}).IsError)
	})

	t.Run("unknown label", func(t *testing.T) {
		deps, _ := newDeps(t)
		result := call(t, deps, map[string]any{"label": "Planet"})
		assert.True(t, result.IsError)
	})

	t.Run("load failure", func(t *testing.T) {
		deps, mockDB := newDeps(t)
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection refused"))
		result := call(t, deps, map[string]any{"label": "World"})
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].(mcp.TextContent).Text, "connection refused")
	})

	t.Run("no session", func(t *testing.T) {
		assert.True(t, call(t, &tools.ToolDependencies{}, map[string]any{"label": "World"}).IsError)
	})
}
