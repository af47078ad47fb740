package mapping

import (
	"fmt"
	"slices"
)

// NodeEntry is a node reached while walking a save graph.
type NodeEntry struct {
	ID     NodeID
	Type   TypeTag
	Entity any
}

// OperationKind is the kind of a relationship write.
type OperationKind int

const (
	DeleteRelationship OperationKind = iota
	CreateRelationship
)

func (k OperationKind) String() string {
	if k == CreateRelationship {
		return "CREATE"
	}
	return "DELETE"
}

// Operation is one step of the relationship edit script.
type Operation struct {
	Kind         OperationKind
	Relationship MappedRelationship
}

// Delta is the result of comparing the object graph reachable from a set of
// save roots with the relationships known to be persisted.
type Delta struct {
	// NewNodes holds reached nodes that only have a temporary identity.
	NewNodes []NodeEntry
	// DirtyNodes holds persisted nodes whose properties changed since they
	// were loaded or last saved.
	DirtyNodes []NodeEntry
	ToCreate   []MappedRelationship
	ToDelete   []MappedRelationship

	links map[relationshipKey]any
}

// LinkOf returns the relationship entity backing a relationship of ToCreate.
func (d Delta) LinkOf(rel MappedRelationship) (any, bool) {
	link, ok := d.links[rel.canonical().key()]
	return link, ok
}

// Operations returns the relationship edit script. Every deletion comes
// before every creation, so a retargeted single-valued relation is removed
// before its replacement is written.
func (d Delta) Operations() []Operation {
	ops := make([]Operation, 0, len(d.ToDelete)+len(d.ToCreate))
	for _, rel := range d.ToDelete {
		ops = append(ops, Operation{Kind: DeleteRelationship, Relationship: rel})
	}
	for _, rel := range d.ToCreate {
		ops = append(ops, Operation{Kind: CreateRelationship, Relationship: rel})
	}
	return ops
}

// IsEmpty reports whether nothing needs to be written.
func (d Delta) IsEmpty() bool {
	return len(d.NewNodes) == 0 && len(d.DirtyNodes) == 0 && len(d.ToCreate) == 0 && len(d.ToDelete) == 0
}

// ChangeDetector computes save deltas. It reads and extends the registry
// (new objects get temporary identities) but never changes the
// relationship set; that only happens on reconcile.
type ChangeDetector struct {
	meta          Metadata
	registry      *EntityRegistry
	relationships *RelationshipSet
}

// NewChangeDetector returns a detector over the given registry and relationship set.
func NewChangeDetector(meta Metadata, registry *EntityRegistry, relationships *RelationshipSet) *ChangeDetector {
	return &ChangeDetector{meta: meta, registry: registry, relationships: relationships}
}

type declaration struct {
	relType   string
	direction Direction
}

type walk struct {
	reached  map[NodeID]NodeEntry
	depths   map[NodeID]int
	order    []NodeID
	expanded map[NodeID][]declaration
	implied  map[relationshipKey]MappedRelationship
	links    map[relationshipKey]any
}

type queued struct {
	id    NodeID
	depth int
}

// Compute walks the graph from roots up to depth relationship hops (a
// negative depth is unbounded) and diffs the relationships it implies
// against the persisted ones.
//
// Only persisted relationships whose start node was reached, and whose type
// is declared by an expanded endpoint, can be deleted. Relationships owned by
// objects outside the walk are never touched.
func (c *ChangeDetector) Compute(roots []any, depth int) (Delta, error) {
	w := &walk{
		reached:  make(map[NodeID]NodeEntry),
		depths:   make(map[NodeID]int),
		expanded: make(map[NodeID][]declaration),
		implied:  make(map[relationshipKey]MappedRelationship),
		links:    make(map[relationshipKey]any),
	}

	var queue []queued
	for _, root := range roots {
		if root == nil {
			continue
		}
		entry, err := c.identify(root)
		if err != nil {
			return Delta{}, err
		}
		if next, ok := w.reach(entry, 0); ok {
			queue = append(queue, next)
		}
	}

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		if depth >= 0 && q.depth >= depth {
			continue
		}
		from := w.reached[q.id]
		relations, err := c.meta.Relations(from.Entity)
		if err != nil {
			return Delta{}, fmt.Errorf("failed to read relations of %s: %w", from.Type, err)
		}
		decls := make([]declaration, 0, len(relations))
		for _, rel := range relations {
			decls = append(decls, declaration{relType: rel.Type, direction: rel.Direction})
			for _, t := range rel.Targets {
				if t.Entity == nil {
					continue
				}
				to, err := c.identify(t.Entity)
				if err != nil {
					return Delta{}, err
				}
				w.imply(c.implied(from, rel, to, t.Link), t.Link)
				if next, ok := w.reach(to, q.depth+1); ok {
					queue = append(queue, next)
				}
			}
		}
		w.expanded[q.id] = decls
	}

	delta := Delta{links: w.links}
	if err := c.diff(w, &delta); err != nil {
		return Delta{}, err
	}
	if err := c.classifyNodes(w, &delta); err != nil {
		return Delta{}, err
	}
	return delta, nil
}

// identify resolves entity to the node it represents. A view of a
// registered node resolves to the node's primary object, so walks always
// see the full type.
func (c *ChangeDetector) identify(entity any) (NodeEntry, error) {
	if _, err := c.meta.TypeOf(entity); err != nil {
		return NodeEntry{}, err
	}
	if !isEntityKey(entity) {
		return NodeEntry{}, fmt.Errorf("entity of type %T must be a non-nil pointer", entity)
	}
	if id, ok := c.registry.IdentityOf(entity); ok {
		id = c.registry.Resolve(id)
		primary, _ := c.registry.ObjectOf(id)
		return c.entry(id, primary)
	}

	views := c.meta.Views(entity)
	if native, ok := c.meta.NativeID(entity); ok {
		id := NativeID(native)
		existing, found := c.registry.ObjectOf(id)
		switch {
		case !found:
			c.registry.RegisterLoaded(id, entity)
			for _, v := range views {
				c.registry.RegisterView(id, v)
			}
		case slices.Contains(c.meta.Views(existing), entity):
			c.registry.RegisterView(id, entity)
			return c.entry(id, existing)
		case !c.registry.Adopt(id, entity, views):
			return NodeEntry{}, &IdentityConflictError{Identity: id, Existing: existing, Incoming: entity}
		}
		return c.entry(id, entity)
	}
	return c.entry(c.registry.AssignTemporaryIdentity(entity, views...), entity)
}

func (c *ChangeDetector) entry(id NodeID, entity any) (NodeEntry, error) {
	tag, err := c.meta.TypeOf(entity)
	if err != nil {
		return NodeEntry{}, err
	}
	return NodeEntry{ID: id, Type: tag, Entity: entity}, nil
}

func (c *ChangeDetector) implied(from NodeEntry, rel Relation, to NodeEntry, link any) MappedRelationship {
	var r MappedRelationship
	switch rel.Direction {
	case Incoming:
		r = NewMappedRelationship(to.ID, rel.Type, from.ID, to.Type, from.Type)
	case Undirected:
		r = NewMappedRelationship(from.ID, rel.Type, to.ID, from.Type, to.Type).AsUndirected()
	default:
		r = NewMappedRelationship(from.ID, rel.Type, to.ID, from.Type, to.Type)
	}
	if link != nil {
		if id, ok := c.meta.RelationshipID(link); ok {
			r = r.WithRelationshipID(id)
		}
	}
	return r
}

func (c *ChangeDetector) diff(w *walk, delta *Delta) error {
	implied := make([]MappedRelationship, 0, len(w.implied))
	for _, rel := range w.implied {
		implied = append(implied, rel)
	}
	slices.SortFunc(implied, compareRelationships)

	// Relationships that carry an id claim their exact match first, so an
	// id-less sibling cannot take it structurally.
	matched := make(map[relationshipKey]struct{})
	for _, withID := range []bool{true, false} {
		for _, rel := range implied {
			if _, hasID := rel.RelationshipID(); hasID != withID {
				continue
			}
			if persisted, ok := c.match(rel, matched); ok {
				matched[persisted.key()] = struct{}{}
				continue
			}
			delta.ToCreate = append(delta.ToCreate, rel)
		}
	}
	slices.SortFunc(delta.ToCreate, compareRelationships)

	seen := make(map[relationshipKey]struct{})
	for _, id := range w.order {
		if _, ok := w.expanded[id]; !ok {
			continue
		}
		for _, rel := range c.relationships.RelationshipsInvolving(id) {
			k := rel.key()
			if _, ok := matched[k]; ok {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !w.inScope(rel) {
				continue
			}
			for _, end := range []NodeID{rel.StartNodeID, rel.EndNodeID} {
				if _, ok := c.registry.ObjectOf(end); !ok {
					return &DanglingReferenceError{Relationship: rel, Missing: end}
				}
			}
			delta.ToDelete = append(delta.ToDelete, rel)
		}
	}
	slices.SortFunc(delta.ToDelete, compareRelationships)
	return nil
}

// match finds the persisted relationship an implied one corresponds to. An
// implied relationship that carries a relationship id must match it exactly;
// one without an id matches any structurally equal relationship.
func (c *ChangeDetector) match(rel MappedRelationship, matched map[relationshipKey]struct{}) (MappedRelationship, bool) {
	candidates := c.relationships.Matching(rel)
	if rel.undirected && !rel.IsSelfReference() {
		candidates = append(candidates, c.relationships.Matching(rel.reversed())...)
	}
	id, hasID := rel.RelationshipID()
	for _, candidate := range candidates {
		if _, ok := matched[candidate.key()]; ok {
			continue
		}
		if hasID {
			if candidateID, ok := candidate.RelationshipID(); !ok || candidateID != id {
				continue
			}
		}
		return candidate, true
	}
	return MappedRelationship{}, false
}

func (c *ChangeDetector) classifyNodes(w *walk, delta *Delta) error {
	for _, id := range w.order {
		entry := w.reached[id]
		if id.IsTemporary() {
			delta.NewNodes = append(delta.NewNodes, entry)
			continue
		}
		fp, err := Fingerprint(c.meta, entry.Entity)
		if err != nil {
			return err
		}
		if stored, ok := c.registry.Fingerprint(id); !ok || stored != fp {
			delta.DirtyNodes = append(delta.DirtyNodes, entry)
		}
	}
	return nil
}

// reach records entry and reports whether it must be expanded: the first
// time its identity is seen, and again when a view reached earlier turns
// out to belong to entry. The second expansion keeps the first depth.
func (w *walk) reach(entry NodeEntry, depth int) (queued, bool) {
	seen, ok := w.reached[entry.ID]
	if !ok {
		w.reached[entry.ID] = entry
		w.depths[entry.ID] = depth
		w.order = append(w.order, entry.ID)
		return queued{id: entry.ID, depth: depth}, true
	}
	if seen.Entity == entry.Entity {
		return queued{}, false
	}
	w.reached[entry.ID] = entry
	return queued{id: entry.ID, depth: w.depths[entry.ID]}, true
}

func (w *walk) imply(rel MappedRelationship, link any) {
	k := rel.canonical().key()
	if _, ok := w.implied[k]; ok {
		return
	}
	w.implied[k] = rel
	if link != nil {
		w.links[k] = link
	}
}

func (w *walk) inScope(rel MappedRelationship) bool {
	_, startReached := w.reached[rel.StartNodeID]
	_, endReached := w.reached[rel.EndNodeID]
	if rel.undirected {
		return (startReached && w.declares(rel.StartNodeID, rel.Type, Undirected)) ||
			(endReached && w.declares(rel.EndNodeID, rel.Type, Undirected))
	}
	if !startReached {
		return false
	}
	return w.declares(rel.StartNodeID, rel.Type, Outgoing) || w.declares(rel.EndNodeID, rel.Type, Incoming)
}

func (w *walk) declares(id NodeID, relType string, direction Direction) bool {
	for _, d := range w.expanded[id] {
		if d.relType == relType && (d.direction == direction || d.direction == Undirected) {
			return true
		}
	}
	return false
}
