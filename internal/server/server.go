// Package server exposes the object mapping and a long-lived session over MCP.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/neo4j-ogm/docs"
	"github.com/mkd-neo4j/neo4j-ogm/internal/config"
	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
)

const serverName = "neo4j-ogm"

// Neo4jMCPServer serves the mapping tools over stdio.
type Neo4jMCPServer struct {
	MCPServer *server.MCPServer
	config    *config.Config
	dbService database.Service
	meta      *metadata.Registry
	session   *session.Session
}

// NewNeo4jMCPServer wires a server around an open database service. All
// tools share one session opened here.
func NewNeo4jMCPServer(version string, cfg *config.Config, dbService database.Service, meta *metadata.Registry, ev events.Service) *Neo4jMCPServer {
	mcpServer := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(true),
		server.WithInstructions(docs.ServerInstructions),
	)
	factory := session.NewFactory(meta, dbService, ev, session.Config{
		LoadDepth: cfg.Session.LoadDepth,
		SaveDepth: cfg.Session.SaveDepth,
	})
	return &Neo4jMCPServer{
		MCPServer: mcpServer,
		config:    cfg,
		dbService: dbService,
		meta:      meta,
		session:   factory.OpenSession(),
	}
}

// Start checks the database is reachable, registers the tools and serves
// requests on stdin/stdout until the client disconnects.
func (s *Neo4jMCPServer) Start(ctx context.Context) error {
	if err := s.dbService.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify database connectivity: %w", err)
	}
	if err := s.registerTools(); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	slog.Info("starting MCP server",
		"database", s.dbService.GetDatabaseName(),
		"readOnly", s.config.ReadOnly,
		"session", s.session.ID())
	return server.ServeStdio(s.MCPServer)
}

// Stop releases the database driver.
func (s *Neo4jMCPServer) Stop(ctx context.Context) error {
	slog.Info("stopping MCP server")
	return s.dbService.Close(ctx)
}
