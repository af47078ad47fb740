package mapping

import (
	"reflect"
	"slices"
)

// EntityRegistry is the session identity map. It guarantees one object per
// node identity and resolves objects, their views and relationship entities
// back to the identities they were registered under.
//
// EntityRegistry is not safe for concurrent use; Context guards it.
type EntityRegistry struct {
	objects      map[NodeID]any
	identities   map[any]NodeID
	views        map[NodeID][]any
	links        map[int64]any
	linkIDs      map[any]int64
	fingerprints map[NodeID]uint64
	retired      map[NodeID]NodeID

	lastTemporary int64
}

// NewEntityRegistry returns an empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		objects:      make(map[NodeID]any),
		identities:   make(map[any]NodeID),
		views:        make(map[NodeID][]any),
		links:        make(map[int64]any),
		linkIDs:      make(map[any]int64),
		fingerprints: make(map[NodeID]uint64),
		retired:      make(map[NodeID]NodeID),
	}
}

// RegisterLoaded binds entity to id unless id already has an object, in
// which case the existing object is returned and entity is ignored.
func (r *EntityRegistry) RegisterLoaded(id NodeID, entity any) any {
	if existing, ok := r.objects[id]; ok {
		return existing
	}
	if !isEntityKey(entity) {
		return entity
	}
	r.objects[id] = entity
	r.identities[entity] = id
	return entity
}

// RegisterView records view as another representation of the node id.
func (r *EntityRegistry) RegisterView(id NodeID, view any) {
	if !isEntityKey(view) {
		return
	}
	if _, ok := r.objects[id]; !ok {
		return
	}
	if existing, ok := r.identities[view]; ok && existing == id {
		return
	}
	r.identities[view] = id
	r.views[id] = append(r.views[id], view)
}

// IdentityOf returns the identity entity (or one of its views) is registered under.
func (r *EntityRegistry) IdentityOf(entity any) (NodeID, bool) {
	if !isEntityKey(entity) {
		return NodeID{}, false
	}
	id, ok := r.identities[entity]
	return id, ok
}

// ObjectOf returns the object registered under id.
func (r *EntityRegistry) ObjectOf(id NodeID) (any, bool) {
	entity, ok := r.objects[r.Resolve(id)]
	return entity, ok
}

// AssignTemporaryIdentity gives a new, unsaved entity a fresh negative
// identity and binds its views to it. An entity that is already registered
// keeps its identity. When one of views was registered first, entity takes
// over that view's identity instead.
func (r *EntityRegistry) AssignTemporaryIdentity(entity any, views ...any) NodeID {
	if id, ok := r.IdentityOf(entity); ok {
		return id
	}
	for _, v := range views {
		if id, ok := r.IdentityOf(v); ok && r.Adopt(id, entity, views) {
			return r.Resolve(id)
		}
	}
	r.lastTemporary--
	id := TemporaryID(r.lastTemporary)
	r.RegisterLoaded(id, entity)
	for _, v := range views {
		r.RegisterView(id, v)
	}
	return id
}

// Adopt makes owner the object registered under id and binds views to the
// same identity. The object previously registered under id must be one of
// views, otherwise nothing changes and Adopt returns false. The recorded
// fingerprint is dropped because it described the view, not owner.
func (r *EntityRegistry) Adopt(id NodeID, owner any, views []any) bool {
	id = r.Resolve(id)
	previous, ok := r.objects[id]
	if !ok || !isEntityKey(owner) || !slices.Contains(views, previous) {
		return false
	}
	delete(r.identities, previous)
	r.objects[id] = owner
	r.identities[owner] = id
	for _, v := range views {
		r.RegisterView(id, v)
	}
	delete(r.fingerprints, id)
	return true
}

// Resolve maps a retired temporary identity to the native identity it was
// promoted to. Any other identity is returned unchanged.
func (r *EntityRegistry) Resolve(id NodeID) NodeID {
	if native, ok := r.retired[id]; ok {
		return native
	}
	return id
}

// checkPromotion validates a promotion without changing anything.
func (r *EntityRegistry) checkPromotion(temporary NodeID, native int64) error {
	if !temporary.IsTemporary() {
		return ErrNotTemporary
	}
	entity, ok := r.objects[temporary]
	if !ok {
		if promoted, ok := r.retired[temporary]; ok && promoted == NativeID(native) {
			return nil
		}
		return &DanglingReferenceError{Missing: temporary}
	}
	target := NativeID(native)
	if existing, ok := r.objects[target]; ok && existing != entity {
		return &IdentityConflictError{Identity: target, Existing: existing, Incoming: entity}
	}
	return nil
}

// promote moves every registry entry of temporary to native. The caller
// must have validated it with checkPromotion.
func (r *EntityRegistry) promote(temporary NodeID, native int64) {
	entity, ok := r.objects[temporary]
	if !ok {
		return
	}
	target := NativeID(native)
	delete(r.objects, temporary)
	r.objects[target] = entity
	r.identities[entity] = target
	if views := r.views[temporary]; len(views) > 0 {
		for _, v := range views {
			r.identities[v] = target
		}
		r.views[target] = append(r.views[target], views...)
		delete(r.views, temporary)
	}
	if fp, ok := r.fingerprints[temporary]; ok {
		r.fingerprints[target] = fp
		delete(r.fingerprints, temporary)
	}
	r.retired[temporary] = target
}

// Evict removes the object registered under id and all of its views.
// Relationships involving id must already have been removed.
func (r *EntityRegistry) Evict(id NodeID) {
	id = r.Resolve(id)
	if entity, ok := r.objects[id]; ok {
		delete(r.identities, entity)
	}
	for _, v := range r.views[id] {
		delete(r.identities, v)
	}
	delete(r.views, id)
	delete(r.objects, id)
	delete(r.fingerprints, id)
	for temporary, native := range r.retired {
		if native == id {
			delete(r.retired, temporary)
		}
	}
}

// RegisterLink binds a relationship entity to its relationship id, returning
// the already registered link when there is one.
func (r *EntityRegistry) RegisterLink(relationshipID int64, link any) any {
	if existing, ok := r.links[relationshipID]; ok {
		return existing
	}
	if !isEntityKey(link) {
		return link
	}
	r.links[relationshipID] = link
	r.linkIDs[link] = relationshipID
	return link
}

// LinkOf returns the relationship entity registered under relationshipID.
func (r *EntityRegistry) LinkOf(relationshipID int64) (any, bool) {
	link, ok := r.links[relationshipID]
	return link, ok
}

// EvictLink forgets a relationship entity.
func (r *EntityRegistry) EvictLink(relationshipID int64) {
	if link, ok := r.links[relationshipID]; ok {
		delete(r.linkIDs, link)
	}
	delete(r.links, relationshipID)
}

// Fingerprint returns the property fingerprint recorded for id.
func (r *EntityRegistry) Fingerprint(id NodeID) (uint64, bool) {
	fp, ok := r.fingerprints[r.Resolve(id)]
	return fp, ok
}

// SetFingerprint records the property fingerprint of a registered node.
func (r *EntityRegistry) SetFingerprint(id NodeID, fp uint64) {
	id = r.Resolve(id)
	if _, ok := r.objects[id]; !ok {
		return
	}
	r.fingerprints[id] = fp
}

// Len returns the number of registered nodes.
func (r *EntityRegistry) Len() int {
	return len(r.objects)
}

// LinkCount returns the number of registered relationship entities.
func (r *EntityRegistry) LinkCount() int {
	return len(r.links)
}

// Identities returns the identities of all registered nodes.
func (r *EntityRegistry) Identities() []NodeID {
	ids := make([]NodeID, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	return ids
}

// isEntityKey rejects values that cannot serve as identity-map keys.
// Entities are always pointers.
func isEntityKey(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}
