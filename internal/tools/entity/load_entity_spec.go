package entity

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/cypher"
)

// LoadEntityInput defines the input parameters for the load-entity tool
type LoadEntityInput struct {
	// Label selects the mapped type to load. Required unless id is set.
	Label string `json:"label,omitempty" jsonschema:"description=Primary label of the mapped type (e.g. Voter, World, Movie). Required unless id is given."`

	// ID loads a single node by its native id.
	ID *int64 `json:"id,omitempty" jsonschema:"description=Native node id to load. When set, filters are ignored."`

	Filters []cypher.Filter `json:"filters,omitempty" jsonschema:"description=Property filters combined with AND. Operators: EQUALS, NOT_EQUALS, GREATER_THAN, GREATER_THAN_EQUAL, LESS_THAN, LESS_THAN_EQUAL, STARTING_WITH, CONTAINING."`

	// Depth overrides the session's load depth. Negative is unbounded.
	Depth *int `json:"depth,omitempty" jsonschema:"description=Relationship hops to load around each match. Negative loads everything reachable. Defaults to the server's load depth."`
}

func LoadEntitySpec() mcp.Tool {
	return mcp.NewTool("load-entity",
		mcp.WithDescription(`Loads mapped entities into the server's session and returns them.

Either pass an id to load one node, or a label with optional filters to load every
matching node. Each result lists the entity's labels, persisted properties and the
identities of the entities its relation fields point at.

Entities stay in the session after the call: loading the same node again returns the
same object, and inspect-context reports it. Call describe-mapping first to see the
available labels and relation names.`),
		mcp.WithInputSchema[LoadEntityInput](),
		mcp.WithTitleAnnotation("Load Entity"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
