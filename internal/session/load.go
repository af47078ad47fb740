package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkd-neo4j/neo4j-ogm/internal/cypher"
	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// graph is the de-duplicated content of a load result.
type graph struct {
	nodes     []dbtype.Node
	rels      []dbtype.Relationship
	roots     []int64
	seenNodes map[int64]struct{}
	seenRels  map[int64]struct{}
	seenRoots map[int64]struct{}
}

func newGraph() *graph {
	return &graph{
		seenNodes: make(map[int64]struct{}),
		seenRels:  make(map[int64]struct{}),
		seenRoots: make(map[int64]struct{}),
	}
}

// parseRecords collects nodes and relationships from paths, nodes and
// relationships in any column. The first node of each path, and every bare
// node, is a root.
func parseRecords(records []*neo4j.Record) (*graph, error) {
	g := newGraph()
	for _, record := range records {
		for i, value := range record.Values {
			switch v := value.(type) {
			case nil:
			case dbtype.Path:
				if len(v.Nodes) == 0 {
					continue
				}
				g.addRoot(v.Nodes[0].Id)
				for _, n := range v.Nodes {
					g.addNode(n)
				}
				for _, r := range v.Relationships {
					g.addRelationship(r)
				}
			case dbtype.Node:
				g.addRoot(v.Id)
				g.addNode(v)
			case dbtype.Relationship:
				g.addRelationship(v)
			default:
				return nil, fmt.Errorf("unexpected %T in column %d", value, i)
			}
		}
	}
	return g, nil
}

func (g *graph) addRoot(id int64) {
	if _, ok := g.seenRoots[id]; ok {
		return
	}
	g.seenRoots[id] = struct{}{}
	g.roots = append(g.roots, id)
}

func (g *graph) addNode(n dbtype.Node) {
	if _, ok := g.seenNodes[n.Id]; ok {
		return
	}
	g.seenNodes[n.Id] = struct{}{}
	g.nodes = append(g.nodes, n)
}

func (g *graph) addRelationship(r dbtype.Relationship) {
	if _, ok := g.seenRels[r.Id]; ok {
		return
	}
	g.seenRels[r.Id] = struct{}{}
	g.rels = append(g.rels, r)
}

// query runs a load statement outside the context lock, then maps the
// result into the context in one update.
func (s *Session) query(ctx context.Context, stmt cypher.Statement) ([]any, error) {
	records, err := s.db.ExecuteReadQuery(ctx, stmt.Query, stmt.Params)
	if err != nil {
		slog.Error("load query failed", "session", s.id, "error", err)
		return nil, err
	}
	g, err := parseRecords(records)
	if err != nil {
		return nil, err
	}

	var roots []any
	err = s.ctx.Update(func(tx *mapping.Tx) error {
		objects, err := s.registerNodes(tx, g.nodes)
		if err != nil {
			return err
		}
		if err := s.registerRelationships(tx, objects, g.rels); err != nil {
			return err
		}
		roots = make([]any, 0, len(g.roots))
		for _, id := range g.roots {
			roots = append(roots, objects[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded", "session", s.id, "roots", len(roots), "nodes", len(g.nodes), "relationships", len(g.rels))
	event := s.events.NewEvent(events.PostLoad, s.id, roots...)
	event.Nodes = len(g.nodes)
	s.events.EmitEvent(event)
	return roots, nil
}

// registerNodes returns the session object for every node, creating and
// hydrating only those the session has not seen.
func (s *Session) registerNodes(tx *mapping.Tx, nodes []dbtype.Node) (map[int64]any, error) {
	objects := make(map[int64]any, len(nodes))
	for _, n := range nodes {
		id := mapping.NativeID(n.Id)
		if existing, ok := tx.ObjectOf(id); ok {
			objects[n.Id] = existing
			continue
		}
		entity, err := s.meta.Instantiate(n.Labels)
		if err != nil {
			return nil, fmt.Errorf("failed to map node %d: %w", n.Id, err)
		}
		if err := s.meta.SetNativeID(entity, n.Id); err != nil {
			return nil, err
		}
		if err := s.meta.Hydrate(entity, n.Labels, n.Props); err != nil {
			return nil, fmt.Errorf("failed to map node %d: %w", n.Id, err)
		}
		objects[n.Id] = tx.RegisterLoaded(id, entity)
		for _, view := range s.meta.Views(entity) {
			tx.RegisterView(id, view)
		}
		if err := tx.Snapshot(id); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

func (s *Session) registerRelationships(tx *mapping.Tx, objects map[int64]any, rels []dbtype.Relationship) error {
	for _, r := range rels {
		start, ok := objects[r.StartId]
		if !ok {
			continue
		}
		end, ok := objects[r.EndId]
		if !ok {
			continue
		}
		startTag, err := s.meta.TypeOf(start)
		if err != nil {
			return err
		}
		endTag, err := s.meta.TypeOf(end)
		if err != nil {
			return err
		}
		mapped := mapping.NewMappedRelationship(mapping.NativeID(r.StartId), r.Type, mapping.NativeID(r.EndId), startTag, endTag)
		if s.meta.Undirected(r.Type, start, end) {
			mapped = mapped.AsUndirected()
		}

		var link any
		if cached, ok := tx.LinkOf(r.Id); ok {
			link = cached
		} else {
			created, isEntity, err := s.meta.NewRelationshipEntity(r.Type, r.Id, r.Props, start, end)
			if err != nil {
				return fmt.Errorf("failed to map relationship %d: %w", r.Id, err)
			}
			if isEntity {
				link = tx.RegisterLink(r.Id, created)
			}
		}
		if link != nil {
			mapped = mapped.WithRelationshipID(r.Id)
		}

		tx.RegisterRelationship(mapped)
		if err := s.meta.Link(start, end, r.Type, link); err != nil {
			return err
		}
	}
	return nil
}
