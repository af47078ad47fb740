package mapping_test

import (
	"fmt"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
)

// node is a small domain type exercising every relation shape.
type node struct {
	id         *int64
	name       string
	votedFor   *node
	likes      []*node
	friends    []*node
	followedBy []*node
	ratings    []*rating
	// alias is the view embedded in the node, when it has one.
	alias *view
}

type rating struct {
	id    *int64
	movie *node
	stars int
}

// view wraps a node the way an embedded struct gives a second Go value for
// the same persisted node.
type view struct {
	owner *node
}

func newNode(name string) *node {
	return &node{name: name}
}

func persisted(name string, id int64) *node {
	return &node{name: name, id: &id}
}

func ptr(v int64) *int64 {
	return &v
}

type fakeMeta struct{}

func (fakeMeta) TypeOf(entity any) (mapping.TypeTag, error) {
	switch entity.(type) {
	case *node:
		return "Node", nil
	case *view:
		return "View", nil
	default:
		return "", fmt.Errorf("unregistered type %T", entity)
	}
}

func (fakeMeta) NativeID(entity any) (int64, bool) {
	switch e := entity.(type) {
	case *node:
		if e.id != nil {
			return *e.id, true
		}
	case *view:
		if e.owner.id != nil {
			return *e.owner.id, true
		}
	}
	return 0, false
}

func (fakeMeta) RelationshipID(link any) (int64, bool) {
	if r, ok := link.(*rating); ok && r.id != nil {
		return *r.id, true
	}
	return 0, false
}

func (fakeMeta) Relations(entity any) ([]mapping.Relation, error) {
	var n *node
	switch e := entity.(type) {
	case *node:
		n = e
	case *view:
		return []mapping.Relation{single("votedFor", "CANDIDATE_VOTED_FOR", e.owner.votedFor)}, nil
	default:
		return nil, fmt.Errorf("unregistered type %T", entity)
	}
	ratings := mapping.Relation{Name: "ratings", Type: "RATED", Direction: mapping.Outgoing, Many: true}
	for _, r := range n.ratings {
		ratings.Targets = append(ratings.Targets, mapping.Target{Entity: r.movie, Link: r})
	}
	return []mapping.Relation{
		single("votedFor", "CANDIDATE_VOTED_FOR", n.votedFor),
		many("likes", "LIKES", mapping.Outgoing, n.likes),
		many("friends", "FRIEND", mapping.Undirected, n.friends),
		many("followedBy", "FOLLOWS", mapping.Incoming, n.followedBy),
		ratings,
	}, nil
}

func (fakeMeta) Properties(entity any) (map[string]any, error) {
	switch e := entity.(type) {
	case *node:
		return map[string]any{"name": e.name}, nil
	case *view:
		return map[string]any{"name": e.owner.name}, nil
	}
	return nil, fmt.Errorf("unregistered type %T", entity)
}

func (fakeMeta) Views(entity any) []any {
	if n, ok := entity.(*node); ok && n.alias != nil {
		return []any{n.alias}
	}
	return nil
}

// withView gives n a view the way a struct embedding another entity does.
func withView(n *node) *view {
	n.alias = &view{owner: n}
	return n.alias
}

func single(name, relType string, target *node) mapping.Relation {
	rel := mapping.Relation{Name: name, Type: relType, Direction: mapping.Outgoing}
	if target != nil {
		rel.Targets = []mapping.Target{{Entity: target}}
	}
	return rel
}

func many(name, relType string, direction mapping.Direction, targets []*node) mapping.Relation {
	rel := mapping.Relation{Name: name, Type: relType, Direction: direction, Many: true}
	for _, t := range targets {
		rel.Targets = append(rel.Targets, mapping.Target{Entity: t})
	}
	return rel
}

func rel(start int64, relType string, end int64) mapping.MappedRelationship {
	return mapping.NewMappedRelationship(mapping.NativeID(start), relType, mapping.NativeID(end), "Node", "Node")
}

// load registers entities and relationships the way a session does after a
// store read, including property snapshots.
func load(t interface{ Fatalf(string, ...any) }, ctx *mapping.Context, entities []*node, rels ...mapping.MappedRelationship) {
	err := ctx.Update(func(tx *mapping.Tx) error {
		for _, e := range entities {
			id := mapping.NativeID(*e.id)
			tx.RegisterLoaded(id, e)
			if err := tx.Snapshot(id); err != nil {
				return err
			}
		}
		for _, r := range rels {
			tx.RegisterRelationship(r)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
}
