package entity

import (
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

// Node is the flat form of a mapped entity. Domain objects may refer to
// each other in cycles, so relations are rendered as node identities.
type Node struct {
	ID         string               `json:"id"`
	Labels     []string             `json:"labels"`
	Properties map[string]any       `json:"properties"`
	Relations  map[string][]Related `json:"relations,omitempty"`
}

// Related is one target of a relation field.
type Related struct {
	Node         string `json:"node"`
	Type         string `json:"type"`
	Direction    string `json:"direction"`
	Relationship *int64 `json:"relationship,omitempty"`
}

// Render flattens entity using the identities known to ctx.
func Render(meta *metadata.Registry, ctx *mapping.Context, entity any) (Node, error) {
	labels, err := meta.Labels(entity)
	if err != nil {
		return Node{}, err
	}
	props, err := meta.Properties(entity)
	if err != nil {
		return Node{}, err
	}
	relations, err := meta.Relations(entity)
	if err != nil {
		return Node{}, err
	}

	n := Node{ID: identity(meta, ctx, entity), Labels: labels, Properties: props}
	for _, rel := range relations {
		for _, t := range rel.Targets {
			if t.Entity == nil {
				continue
			}
			related := Related{Node: identity(meta, ctx, t.Entity), Type: rel.Type, Direction: rel.Direction.String()}
			if t.Link != nil {
				if id, ok := meta.RelationshipID(t.Link); ok {
					related.Relationship = &id
				}
			}
			if n.Relations == nil {
				n.Relations = make(map[string][]Related)
			}
			n.Relations[rel.Name] = append(n.Relations[rel.Name], related)
		}
	}
	return n, nil
}

func identity(meta *metadata.Registry, ctx *mapping.Context, entity any) string {
	if id, ok := ctx.IdentityOf(entity); ok {
		return id.String()
	}
	if id, ok := meta.NativeID(entity); ok {
		return mapping.NativeID(id).String()
	}
	return "unsaved"
}
