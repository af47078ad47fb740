package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/admin"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/cypher/read"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/entity"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools/sessionctx"
)

// registerTools registers all enabled MCP tools and adds them to the provided MCP server.
// When read-only mode is enabled (NEO4J_READ_ONLY or Config.ReadOnly) only tools
// annotated as read-only are registered.
func (s *Neo4jMCPServer) registerTools() error {
	filteredTools := s.getEnabledTools()
	s.MCPServer.AddTools(filteredTools...)
	return nil
}

type toolFilter func(tools []ToolDefinition) []ToolDefinition

type toolCategory int

const (
	mappingCategory toolCategory = 0
	entityCategory  toolCategory = 1
	contextCategory toolCategory = 2
	cypherCategory  toolCategory = 3
	adminCategory   toolCategory = 4
)

type ToolDefinition struct {
	category   toolCategory
	definition server.ServerTool
	readonly   bool
}

func (s *Neo4jMCPServer) getEnabledTools() []server.ServerTool {
	filters := make([]toolFilter, 0)

	// If read-only mode is enabled, expose only tools annotated as read-only.
	if s.config != nil && s.config.ReadOnly {
		filters = append(filters, filterWriteTools)
	}
	deps := &tools.ToolDependencies{
		DBService: s.dbService,
		Metadata:  s.meta,
		Session:   s.session,
	}
	toolDefs := s.getAllToolsDefs(deps)

	for _, filter := range filters {
		toolDefs = filter(toolDefs)
	}
	enabledTools := make([]server.ServerTool, 0, len(toolDefs))
	for _, toolDef := range toolDefs {
		enabledTools = append(enabledTools, toolDef.definition)
	}
	return enabledTools
}

func filterWriteTools(tools []ToolDefinition) []ToolDefinition {
	readOnlyTools := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if t.readonly {
			readOnlyTools = append(readOnlyTools, t)
		}
	}
	return readOnlyTools
}

// getAllToolsDefs returns all available tools with their specs and handlers
func (s *Neo4jMCPServer) getAllToolsDefs(deps *tools.ToolDependencies) []ToolDefinition {
	return []ToolDefinition{
		{
			category: mappingCategory,
			definition: server.ServerTool{
				Tool:    mapping.DescribeMappingSpec(),
				Handler: mapping.DescribeMappingHandler(deps),
			},
			readonly: true,
		},
		{
			category: entityCategory,
			definition: server.ServerTool{
				Tool:    entity.LoadEntitySpec(),
				Handler: entity.LoadEntityHandler(deps),
			},
			readonly: true,
		},
		// Session context
		{
			category: contextCategory,
			definition: server.ServerTool{
				Tool:    sessionctx.InspectContextSpec(),
				Handler: sessionctx.InspectContextHandler(deps),
			},
			readonly: true,
		},
		{
			category: contextCategory,
			definition: server.ServerTool{
				Tool:    sessionctx.ClearContextSpec(),
				Handler: sessionctx.ClearContextHandler(deps),
			},
			readonly: false,
		},
		{
			category: cypherCategory,
			definition: server.ServerTool{
				Tool:    read.ReadCypherSpec(),
				Handler: read.ReadCypherHandler(deps),
			},
			readonly: true,
		},
		{
			category: adminCategory,
			definition: server.ServerTool{
				Tool:    admin.PurgeDatabaseSpec(),
				Handler: admin.PurgeDatabaseHandler(deps),
			},
			readonly: false,
		},
	}
}
