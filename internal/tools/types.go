package tools

import (
	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
)

// ToolDependencies contains all dependencies needed by tools
type ToolDependencies struct {
	DBService database.Service
	Metadata  *metadata.Registry
	// Session is the long-lived session whose mapping context the tools
	// inspect and fill.
	Session *session.Session
}
