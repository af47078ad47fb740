package mapping

import "slices"

// RelationshipSet holds the relationships known to be persisted, indexed by
// identity, by endpoint and by (start, type, end).
//
// RelationshipSet is not safe for concurrent use; Context guards it.
type RelationshipSet struct {
	relationships map[relationshipKey]MappedRelationship
	byNode        map[NodeID]map[relationshipKey]struct{}
	byStructure   map[structuralKey]map[relationshipKey]struct{}
	undirected    map[relationshipKey]struct{}
}

// NewRelationshipSet returns an empty set.
func NewRelationshipSet() *RelationshipSet {
	return &RelationshipSet{
		relationships: make(map[relationshipKey]MappedRelationship),
		byNode:        make(map[NodeID]map[relationshipKey]struct{}),
		byStructure:   make(map[structuralKey]map[relationshipKey]struct{}),
		undirected:    make(map[relationshipKey]struct{}),
	}
}

// Add records rel. It reports false if an identical relationship was already present.
func (s *RelationshipSet) Add(rel MappedRelationship) bool {
	k := rel.key()
	if rel.undirected {
		s.undirected[k] = struct{}{}
	}
	if _, ok := s.relationships[k]; ok {
		return false
	}
	s.relationships[k] = rel
	index(s.byNode, rel.StartNodeID, k)
	if rel.EndNodeID != rel.StartNodeID {
		index(s.byNode, rel.EndNodeID, k)
	}
	index(s.byStructure, rel.structuralKey(), k)
	return true
}

// Remove forgets rel. It reports false if rel was not present.
func (s *RelationshipSet) Remove(rel MappedRelationship) bool {
	k := rel.key()
	stored, ok := s.relationships[k]
	if !ok {
		return false
	}
	delete(s.relationships, k)
	delete(s.undirected, k)
	unindex(s.byNode, stored.StartNodeID, k)
	unindex(s.byNode, stored.EndNodeID, k)
	unindex(s.byStructure, stored.structuralKey(), k)
	return true
}

// Contains reports whether rel is present, comparing identities.
func (s *RelationshipSet) Contains(rel MappedRelationship) bool {
	_, ok := s.relationships[rel.key()]
	return ok
}

// IsUndirected reports whether rel is recorded as backing an undirected relation.
func (s *RelationshipSet) IsUndirected(rel MappedRelationship) bool {
	_, ok := s.undirected[rel.key()]
	return ok
}

// Matching returns the relationships structurally equal to rel.
func (s *RelationshipSet) Matching(rel MappedRelationship) []MappedRelationship {
	return s.collect(s.byStructure[rel.structuralKey()])
}

// RelationshipsInvolving returns the relationships that start or end at id.
func (s *RelationshipSet) RelationshipsInvolving(id NodeID) []MappedRelationship {
	return s.collect(s.byNode[id])
}

// RemoveAllInvolving removes and returns every relationship that starts or
// ends at id. It never touches other nodes.
func (s *RelationshipSet) RemoveAllInvolving(id NodeID) []MappedRelationship {
	removed := s.RelationshipsInvolving(id)
	for _, rel := range removed {
		s.Remove(rel)
	}
	return removed
}

// Apply adds toCreate and removes toDelete. Deletions are applied first so a
// retarget that recreates an identical record keeps it.
func (s *RelationshipSet) Apply(toCreate, toDelete []MappedRelationship) {
	for _, rel := range toDelete {
		s.Remove(rel)
	}
	for _, rel := range toCreate {
		s.Add(rel)
	}
}

// All returns every relationship in a stable order.
func (s *RelationshipSet) All() []MappedRelationship {
	out := make([]MappedRelationship, 0, len(s.relationships))
	for _, rel := range s.relationships {
		out = append(out, s.decorate(rel))
	}
	slices.SortFunc(out, compareRelationships)
	return out
}

// Len returns the number of relationships.
func (s *RelationshipSet) Len() int {
	return len(s.relationships)
}

// rewrite replaces the endpoint from with to in every relationship touching it.
func (s *RelationshipSet) rewrite(from, to NodeID) {
	for _, rel := range s.RemoveAllInvolving(from) {
		s.Add(rel.rewrite(from, to))
	}
}

func (s *RelationshipSet) collect(keys map[relationshipKey]struct{}) []MappedRelationship {
	out := make([]MappedRelationship, 0, len(keys))
	for k := range keys {
		out = append(out, s.decorate(s.relationships[k]))
	}
	slices.SortFunc(out, compareRelationships)
	return out
}

func (s *RelationshipSet) decorate(rel MappedRelationship) MappedRelationship {
	if _, ok := s.undirected[rel.key()]; ok {
		rel.undirected = true
	}
	return rel
}

func index[K comparable](idx map[K]map[relationshipKey]struct{}, at K, k relationshipKey) {
	keys, ok := idx[at]
	if !ok {
		keys = make(map[relationshipKey]struct{})
		idx[at] = keys
	}
	keys[k] = struct{}{}
}

func unindex[K comparable](idx map[K]map[relationshipKey]struct{}, at K, k relationshipKey) {
	keys, ok := idx[at]
	if !ok {
		return
	}
	delete(keys, k)
	if len(keys) == 0 {
		delete(idx, at)
	}
}
