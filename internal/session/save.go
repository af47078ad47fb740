package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mkd-neo4j/neo4j-ogm/internal/cypher"
	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Save writes every change in the graph reachable from root. See SaveAll.
func (s *Session) Save(ctx context.Context, root any, opts ...Option) error {
	return s.SaveAll(ctx, []any{root}, opts...)
}

// SaveAll writes every change in the graphs reachable from roots up to the
// save depth: new and modified nodes, then relationship deletions, then
// relationship creations, all in one transaction. The session reflects the
// write only once the transaction has committed; on failure it returns a
// mapping.ReconciliationError and the session is unchanged apart from the
// temporary identities given to new objects.
//
// Saves on one session run one after another; loads are not held up.
func (s *Session) SaveAll(ctx context.Context, roots []any, opts ...Option) error {
	if s.db == nil {
		return ErrNoConnection
	}
	s.saves.Lock()
	defer s.saves.Unlock()
	depth := resolveDepth(s.cfg.SaveDepth, opts)
	delta, err := s.ctx.ComputeSaveDelta(roots, depth)
	if err != nil {
		return fmt.Errorf("failed to compute changes: %w", err)
	}
	if delta.IsEmpty() {
		slog.Debug("nothing to save", "session", s.id)
		return nil
	}

	s.events.EmitEvent(s.events.NewEvent(events.PreSave, s.id, roots...))

	plan, err := s.plan(delta)
	if err != nil {
		return err
	}
	var result *writeResult
	err = s.db.ExecuteWriteTransaction(ctx, func(tx database.Transaction) error {
		// the driver may retry; every attempt starts from an empty result
		result, err = plan.execute(ctx, tx)
		return err
	})
	if err != nil {
		slog.Error("save failed", "session", s.id, "creates", len(delta.ToCreate), "deletes", len(delta.ToDelete), "error", err)
		return &mapping.ReconciliationError{Creates: len(delta.ToCreate), Deletes: len(delta.ToDelete), Err: err}
	}

	if err := s.commit(delta, plan, result); err != nil {
		return err
	}
	slog.Debug("saved", "session", s.id,
		"newNodes", len(delta.NewNodes), "dirtyNodes", len(delta.DirtyNodes),
		"created", len(delta.ToCreate), "deleted", len(delta.ToDelete))

	event := s.events.NewEvent(events.PostSave, s.id, roots...)
	event.Created = len(delta.ToCreate)
	event.Deleted = len(delta.ToDelete)
	event.Nodes = len(delta.NewNodes) + len(delta.DirtyNodes)
	s.events.EmitEvent(event)
	return nil
}

// writePlan is a delta turned into statements. Node and relationship
// endpoints that are still temporary are resolved while executing.
type writePlan struct {
	creates      []nodeBatch
	updates      []nodeBatch
	deleteByID   []int64
	deletes      map[string][]mapping.MappedRelationship
	merges       map[string][]mapping.MappedRelationship
	linkCreates  map[string][]linkWrite
	linkUpdates  []linkWrite
	newNodeByRef map[int64]mapping.NodeEntry
}

type nodeBatch struct {
	labels []string
	rows   []cypher.NodeRow
}

type linkWrite struct {
	rel   mapping.MappedRelationship
	link  any
	props map[string]any
}

type writeResult struct {
	promotions map[mapping.NodeID]int64
	linkIDs    map[any]int64
}

func (s *Session) plan(delta mapping.Delta) (*writePlan, error) {
	p := &writePlan{
		deletes:      make(map[string][]mapping.MappedRelationship),
		merges:       make(map[string][]mapping.MappedRelationship),
		linkCreates:  make(map[string][]linkWrite),
		newNodeByRef: make(map[int64]mapping.NodeEntry),
	}

	var err error
	if p.creates, err = s.batchNodes(delta.NewNodes); err != nil {
		return nil, err
	}
	if p.updates, err = s.batchNodes(delta.DirtyNodes); err != nil {
		return nil, err
	}
	for _, n := range delta.NewNodes {
		ref, _ := n.ID.Temporary()
		p.newNodeByRef[ref] = n
	}

	for _, rel := range delta.ToDelete {
		if id, ok := rel.RelationshipID(); ok {
			p.deleteByID = append(p.deleteByID, id)
			continue
		}
		p.deletes[rel.Type] = append(p.deletes[rel.Type], rel)
	}

	for _, rel := range delta.ToCreate {
		link, ok := delta.LinkOf(rel)
		if !ok || !s.meta.IsRelationshipEntity(link) {
			p.merges[rel.Type] = append(p.merges[rel.Type], rel)
			continue
		}
		props, err := s.meta.LinkProperties(link)
		if err != nil {
			return nil, err
		}
		w := linkWrite{rel: rel, link: link, props: props}
		if _, hasID := rel.RelationshipID(); hasID {
			p.linkUpdates = append(p.linkUpdates, w)
			continue
		}
		p.linkCreates[rel.Type] = append(p.linkCreates[rel.Type], w)
	}
	return p, nil
}

// batchNodes groups nodes by label set so each set is written by one statement.
func (s *Session) batchNodes(entries []mapping.NodeEntry) ([]nodeBatch, error) {
	byLabels := make(map[string]*nodeBatch)
	var keys []string
	for _, e := range entries {
		labels, err := s.meta.Labels(e.Entity)
		if err != nil {
			return nil, err
		}
		props, err := s.meta.Properties(e.Entity)
		if err != nil {
			return nil, err
		}
		sorted := slices.Clone(labels)
		slices.Sort(sorted)
		key := strings.Join(sorted, ":")
		b, ok := byLabels[key]
		if !ok {
			b = &nodeBatch{labels: labels}
			byLabels[key] = b
			keys = append(keys, key)
		}
		ref, ok := e.ID.Native()
		if !ok {
			ref, _ = e.ID.Temporary()
		}
		b.rows = append(b.rows, cypher.NodeRow{Ref: ref, Props: props})
	}
	slices.Sort(keys)
	out := make([]nodeBatch, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byLabels[k])
	}
	return out, nil
}

func (p *writePlan) execute(ctx context.Context, tx database.Transaction) (*writeResult, error) {
	res := &writeResult{
		promotions: make(map[mapping.NodeID]int64),
		linkIDs:    make(map[any]int64),
	}

	for _, b := range p.creates {
		stmt := cypher.CreateNodes(b.labels, b.rows)
		records, err := tx.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to create nodes: %w", err)
		}
		for _, r := range records {
			ref, id, err := refAndID(r)
			if err != nil {
				return nil, err
			}
			res.promotions[mapping.TemporaryID(ref)] = id
		}
	}
	if len(res.promotions) != len(p.newNodeByRef) {
		return nil, fmt.Errorf("created %d of %d nodes", len(res.promotions), len(p.newNodeByRef))
	}
	for _, b := range p.updates {
		stmt := cypher.UpdateNodes(b.labels, b.rows)
		if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
			return nil, fmt.Errorf("failed to update nodes: %w", err)
		}
	}

	if len(p.deleteByID) > 0 {
		stmt := cypher.DeleteRelationshipsByID(p.deleteByID)
		if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
			return nil, fmt.Errorf("failed to delete relationships: %w", err)
		}
	}
	for _, relType := range sortedKeys(p.deletes) {
		rows, err := res.rows(p.deletes[relType])
		if err != nil {
			return nil, err
		}
		stmt := cypher.DeleteRelationships(relType, rows)
		if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
			return nil, fmt.Errorf("failed to delete %s relationships: %w", relType, err)
		}
	}

	for _, relType := range sortedKeys(p.merges) {
		rows, err := res.rows(p.merges[relType])
		if err != nil {
			return nil, err
		}
		stmt := cypher.MergeRelationships(relType, rows)
		if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
			return nil, fmt.Errorf("failed to create %s relationships: %w", relType, err)
		}
	}
	for _, relType := range sortedKeys(p.linkCreates) {
		writes := p.linkCreates[relType]
		rows := make([]cypher.RelationshipRow, 0, len(writes))
		for i, w := range writes {
			row, err := res.row(w.rel)
			if err != nil {
				return nil, err
			}
			row.Ref = int64(i)
			row.Props = w.props
			rows = append(rows, row)
		}
		stmt := cypher.CreateRelationships(relType, rows)
		records, err := tx.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s relationships: %w", relType, err)
		}
		for _, r := range records {
			ref, id, err := refAndID(r)
			if err != nil {
				return nil, err
			}
			if ref < 0 || int(ref) >= len(writes) {
				return nil, fmt.Errorf("unexpected relationship ref %d", ref)
			}
			res.linkIDs[writes[ref].link] = id
		}
	}
	if len(p.linkUpdates) > 0 {
		rows := make([]cypher.RelationshipRow, 0, len(p.linkUpdates))
		for _, w := range p.linkUpdates {
			id, _ := w.rel.RelationshipID()
			rows = append(rows, cypher.RelationshipRow{Ref: id, Props: w.props})
		}
		stmt := cypher.UpdateRelationships(rows)
		if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
			return nil, fmt.Errorf("failed to update relationships: %w", err)
		}
	}
	return res, nil
}

func (res *writeResult) resolve(id mapping.NodeID) (int64, error) {
	if native, ok := id.Native(); ok {
		return native, nil
	}
	if native, ok := res.promotions[id]; ok {
		return native, nil
	}
	return 0, fmt.Errorf("node %s was not created", id)
}

func (res *writeResult) row(rel mapping.MappedRelationship) (cypher.RelationshipRow, error) {
	start, err := res.resolve(rel.StartNodeID)
	if err != nil {
		return cypher.RelationshipRow{}, err
	}
	end, err := res.resolve(rel.EndNodeID)
	if err != nil {
		return cypher.RelationshipRow{}, err
	}
	return cypher.RelationshipRow{Start: start, End: end}, nil
}

func (res *writeResult) rows(rels []mapping.MappedRelationship) ([]cypher.RelationshipRow, error) {
	rows := make([]cypher.RelationshipRow, 0, len(rels))
	for _, rel := range rels {
		row, err := res.row(rel)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// commit reflects a successful write in the context, then hands the new
// ids to the domain objects.
func (s *Session) commit(delta mapping.Delta, plan *writePlan, res *writeResult) error {
	created := make([]mapping.MappedRelationship, 0, len(delta.ToCreate))
	links := make(map[int64]any, len(res.linkIDs))
	for _, rel := range delta.ToCreate {
		if link, ok := delta.LinkOf(rel); ok {
			if id, ok := res.linkIDs[link]; ok {
				rel = rel.WithRelationshipID(id)
				links[id] = link
			} else if id, ok := rel.RelationshipID(); ok {
				links[id] = link
			}
		}
		created = append(created, rel)
	}

	saved := make([]mapping.NodeEntry, 0, len(delta.NewNodes)+len(delta.DirtyNodes))
	saved = append(saved, delta.NewNodes...)
	saved = append(saved, delta.DirtyNodes...)

	err := s.ctx.Commit(mapping.Commit{
		Promotions: res.promotions,
		Created:    created,
		Deleted:    delta.ToDelete,
		Links:      links,
		Saved:      saved,
	})
	if err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}

	for ref, entry := range plan.newNodeByRef {
		if err := s.meta.SetNativeID(entry.Entity, res.promotions[mapping.TemporaryID(ref)]); err != nil {
			return err
		}
	}
	for link, id := range res.linkIDs {
		if err := s.meta.SetNativeID(link, id); err != nil {
			return err
		}
	}
	return nil
}

func refAndID(r *neo4j.Record) (int64, int64, error) {
	ref, _, err := neo4j.GetRecordValue[int64](r, "ref")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read ref: %w", err)
	}
	id, _, err := neo4j.GetRecordValue[int64](r, "id")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read id: %w", err)
	}
	return ref, id, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
