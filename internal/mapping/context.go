// Package mapping implements the per-session mapping context: the identity
// map of loaded and new entities, the set of relationships known to be
// persisted, and the change detection that turns an in-memory object graph
// into the minimal relationship edit script.
package mapping

import (
	"fmt"
	"sync"
)

// Context is the mapping context of one session.
//
// The registry and relationship set reference each other (promoting an
// identity rewrites both), so one read/write lock guards them together.
// Lookups share the lock; every mutation holds it exclusively. No method
// performs I/O while holding it.
type Context struct {
	mu            sync.RWMutex
	meta          Metadata
	registry      *EntityRegistry
	relationships *RelationshipSet
}

// Stats is a point-in-time summary of a context.
type Stats struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
	Links         int `json:"relationshipEntities"`
}

// Commit describes a confirmed write to be reflected in the context.
type Commit struct {
	// Promotions maps temporary identities to the native ids the store assigned.
	Promotions map[NodeID]int64
	// Created and Deleted are the relationships that were written.
	// Endpoints may still use promoted temporary identities.
	Created []MappedRelationship
	Deleted []MappedRelationship
	// Links holds relationship entities by the relationship id they were created with.
	Links map[int64]any
	// Saved lists the nodes whose properties were written.
	Saved []NodeEntry
}

// NewContext returns an empty context.
func NewContext(meta Metadata) *Context {
	return &Context{
		meta:          meta,
		registry:      NewEntityRegistry(),
		relationships: NewRelationshipSet(),
	}
}

// RegisterNode registers entity under its native id, or assigns it a
// temporary identity when it has none.
func (c *Context) RegisterNode(entity any) (NodeID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, err := c.detector().identify(entity)
	if err != nil {
		return NodeID{}, err
	}
	return entry.ID, nil
}

// RegisterLoaded binds a freshly loaded entity to id and returns the object
// the session must use, which is the cached one when id was seen before.
func (c *Context) RegisterLoaded(id NodeID, entity any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.RegisterLoaded(id, entity)
}

// RegisterRelationship records rel as persisted.
func (c *Context) RegisterRelationship(rel MappedRelationship) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relationships.Add(c.resolve(rel))
}

// DeregisterRelationship forgets rel.
func (c *Context) DeregisterRelationship(rel MappedRelationship) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relationships.Remove(c.resolve(rel))
}

// ContainsRelationship reports whether rel is known to be persisted.
func (c *Context) ContainsRelationship(rel MappedRelationship) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relationships.Contains(c.resolve(rel))
}

// RelationshipsInvolving returns the persisted relationships touching id.
func (c *Context) RelationshipsInvolving(id NodeID) []MappedRelationship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relationships.RelationshipsInvolving(c.registry.Resolve(id))
}

// Relationships returns every persisted relationship the context knows.
func (c *Context) Relationships() []MappedRelationship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relationships.All()
}

// IdentityOf returns the identity entity is registered under.
func (c *Context) IdentityOf(entity any) (NodeID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.registry.IdentityOf(entity)
	if !ok {
		return NodeID{}, false
	}
	return c.registry.Resolve(id), true
}

// ObjectOf returns the entity registered under id.
func (c *Context) ObjectOf(id NodeID) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.ObjectOf(id)
}

// LinkOf returns the relationship entity registered under relationshipID.
func (c *Context) LinkOf(relationshipID int64) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.LinkOf(relationshipID)
}

// ComputeSaveDelta computes what must be written to persist the graph
// reachable from roots. New objects and their views receive temporary
// identities, and views reached before their owner are bound to it; nothing
// else in the context changes. The temporary identities stay registered if
// the write then fails, so a retry reuses them; Clear or EvictNode drops them.
func (c *Context) ComputeSaveDelta(roots []any, depth int) (Delta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detector().Compute(roots, depth)
}

// Reconcile applies a confirmed relationship write. It must only be called
// after the store accepted every operation.
func (c *Context) Reconcile(toCreate, toDelete []MappedRelationship) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconcile(toCreate, toDelete)
}

// Promote rewrites every reference to a temporary identity to the native id
// the store assigned. The registry and relationship set change together or
// not at all.
func (c *Context) Promote(temporary NodeID, native int64) error {
	return c.Commit(Commit{Promotions: map[NodeID]int64{temporary: native}})
}

// Commit reflects a confirmed write: it promotes new identities, applies the
// relationship changes, registers new relationship entities and refreshes
// the fingerprints of saved nodes. Everything is validated before the first
// change, so an error leaves the context untouched.
func (c *Context) Commit(commit Commit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	targets := make(map[int64]NodeID, len(commit.Promotions))
	for temporary, native := range commit.Promotions {
		if err := c.registry.checkPromotion(temporary, native); err != nil {
			return fmt.Errorf("failed to promote %s to %d: %w", temporary, native, err)
		}
		if other, ok := targets[native]; ok && other != temporary {
			first, _ := c.registry.ObjectOf(other)
			second, _ := c.registry.ObjectOf(temporary)
			return &IdentityConflictError{Identity: NativeID(native), Existing: first, Incoming: second}
		}
		targets[native] = temporary
	}

	fingerprints := make(map[NodeID]uint64, len(commit.Saved))
	for _, entry := range commit.Saved {
		fp, err := Fingerprint(c.meta, entry.Entity)
		if err != nil {
			return err
		}
		fingerprints[entry.ID] = fp
	}

	for temporary, native := range commit.Promotions {
		if !c.registry.Resolve(temporary).IsTemporary() {
			continue
		}
		c.registry.promote(temporary, native)
		c.relationships.rewrite(temporary, NativeID(native))
	}
	c.reconcile(commit.Created, commit.Deleted)
	for id, link := range commit.Links {
		c.registry.RegisterLink(id, link)
	}
	for id, fp := range fingerprints {
		c.registry.SetFingerprint(id, fp)
	}
	return nil
}

// EvictNode removes a node and every relationship touching it, returning
// the removed relationships. Related nodes stay registered.
func (c *Context) EvictNode(id NodeID) []MappedRelationship {
	c.mu.Lock()
	defer c.mu.Unlock()
	id = c.registry.Resolve(id)
	removed := c.relationships.RemoveAllInvolving(id)
	for _, rel := range removed {
		if relID, ok := rel.RelationshipID(); ok {
			c.registry.EvictLink(relID)
		}
	}
	c.registry.Evict(id)
	return removed
}

// Clear drops all state. Loads running concurrently with Clear may register
// their results in either the old or the new state.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry = NewEntityRegistry()
	c.relationships = NewRelationshipSet()
}

// Update runs fn with exclusive access to the context, so a batch of
// registrations is observed all at once. fn must not block on I/O.
func (c *Context) Update(fn func(tx *Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(&Tx{c: c})
}

// Stats returns the current size of the context.
func (c *Context) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Nodes:         c.registry.Len(),
		Relationships: c.relationships.Len(),
		Links:         c.registry.LinkCount(),
	}
}

func (c *Context) detector() *ChangeDetector {
	return NewChangeDetector(c.meta, c.registry, c.relationships)
}

func (c *Context) reconcile(toCreate, toDelete []MappedRelationship) {
	created := make([]MappedRelationship, len(toCreate))
	for i, rel := range toCreate {
		created[i] = c.resolve(rel)
	}
	deleted := make([]MappedRelationship, len(toDelete))
	for i, rel := range toDelete {
		deleted[i] = c.resolve(rel)
	}
	c.relationships.Apply(created, deleted)
}

func (c *Context) resolve(rel MappedRelationship) MappedRelationship {
	rel.StartNodeID = c.registry.Resolve(rel.StartNodeID)
	rel.EndNodeID = c.registry.Resolve(rel.EndNodeID)
	return rel
}

// Tx gives Update callbacks unlocked access to the context.
type Tx struct {
	c *Context
}

// RegisterLoaded is Context.RegisterLoaded without locking.
func (tx *Tx) RegisterLoaded(id NodeID, entity any) any {
	return tx.c.registry.RegisterLoaded(id, entity)
}

// RegisterView records view as another representation of id.
func (tx *Tx) RegisterView(id NodeID, view any) {
	tx.c.registry.RegisterView(id, view)
}

// RegisterLink binds a relationship entity to its relationship id.
func (tx *Tx) RegisterLink(relationshipID int64, link any) any {
	return tx.c.registry.RegisterLink(relationshipID, link)
}

// LinkOf returns the relationship entity registered under relationshipID.
func (tx *Tx) LinkOf(relationshipID int64) (any, bool) {
	return tx.c.registry.LinkOf(relationshipID)
}

// ObjectOf returns the entity registered under id.
func (tx *Tx) ObjectOf(id NodeID) (any, bool) {
	return tx.c.registry.ObjectOf(id)
}

// IdentityOf returns the identity entity is registered under.
func (tx *Tx) IdentityOf(entity any) (NodeID, bool) {
	return tx.c.registry.IdentityOf(entity)
}

// RegisterRelationship records rel as persisted.
func (tx *Tx) RegisterRelationship(rel MappedRelationship) bool {
	return tx.c.relationships.Add(tx.c.resolve(rel))
}

// Snapshot records the current property fingerprint of the node id, so an
// unchanged node is not rewritten on the next save.
func (tx *Tx) Snapshot(id NodeID) error {
	entity, ok := tx.c.registry.ObjectOf(id)
	if !ok {
		return nil
	}
	fp, err := Fingerprint(tx.c.meta, entity)
	if err != nil {
		return err
	}
	tx.c.registry.SetFingerprint(id, fp)
	return nil
}
