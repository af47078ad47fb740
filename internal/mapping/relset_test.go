package mapping_test

import (
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/stretchr/testify/assert"
)

func TestRelationshipSet_AddRemoveContains(t *testing.T) {
	s := mapping.NewRelationshipSet()
	r := rel(1, "LIKES", 2)

	assert.True(t, s.Add(r))
	assert.False(t, s.Add(r), "adding twice is a no-op")
	assert.True(t, s.Contains(r))
	assert.True(t, s.Contains(mapping.NewMappedRelationship(mapping.NativeID(1), "LIKES", mapping.NativeID(2), "Other", "Other")))
	assert.False(t, s.Contains(r.WithRelationshipID(5)), "lookup compares identities")
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Remove(r))
	assert.False(t, s.Remove(r))
	assert.False(t, s.Contains(r))
	assert.Empty(t, s.RelationshipsInvolving(mapping.NativeID(1)))
	assert.Empty(t, s.RelationshipsInvolving(mapping.NativeID(2)))
}

func TestRelationshipSet_RelationshipsInvolving(t *testing.T) {
	s := mapping.NewRelationshipSet()
	s.Add(rel(1, "LIKES", 2))
	s.Add(rel(3, "LIKES", 1))
	s.Add(rel(2, "LIKES", 3))
	s.Add(rel(1, "CANDIDATE_VOTED_FOR", 1))

	involving := s.RelationshipsInvolving(mapping.NativeID(1))
	assert.Len(t, involving, 3, "a self loop is reported once")
	assert.Len(t, s.RelationshipsInvolving(mapping.NativeID(2)), 2)
	assert.Empty(t, s.RelationshipsInvolving(mapping.NativeID(9)))

	// the returned slice belongs to the caller
	involving[0] = rel(7, "X", 7)
	assert.False(t, s.Contains(rel(7, "X", 7)))
}

func TestRelationshipSet_RemoveAllInvolving(t *testing.T) {
	s := mapping.NewRelationshipSet()
	s.Add(rel(1, "LIKES", 2))
	s.Add(rel(3, "LIKES", 1))
	s.Add(rel(2, "LIKES", 3))

	removed := s.RemoveAllInvolving(mapping.NativeID(1))
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(rel(2, "LIKES", 3)), "edges between other nodes survive")
	assert.Len(t, s.RelationshipsInvolving(mapping.NativeID(2)), 1)
}

func TestRelationshipSet_Apply(t *testing.T) {
	s := mapping.NewRelationshipSet()
	s.Add(rel(1, "CANDIDATE_VOTED_FOR", 2))

	s.Apply(
		[]mapping.MappedRelationship{rel(1, "CANDIDATE_VOTED_FOR", 3)},
		[]mapping.MappedRelationship{rel(1, "CANDIDATE_VOTED_FOR", 2)},
	)

	assert.True(t, s.Contains(rel(1, "CANDIDATE_VOTED_FOR", 3)))
	assert.False(t, s.Contains(rel(1, "CANDIDATE_VOTED_FOR", 2)))
	assert.Equal(t, []mapping.MappedRelationship{rel(1, "CANDIDATE_VOTED_FOR", 3)}, s.All())
}

func TestRelationshipSet_MatchingAndUndirected(t *testing.T) {
	s := mapping.NewRelationshipSet()
	s.Add(rel(1, "RATED", 2).WithRelationshipID(10))
	s.Add(rel(1, "RATED", 2).WithRelationshipID(11))
	s.Add(rel(2, "FRIEND", 3).AsUndirected())

	assert.Len(t, s.Matching(rel(1, "RATED", 2)), 2)
	assert.Empty(t, s.Matching(rel(2, "RATED", 1)))

	assert.True(t, s.IsUndirected(rel(2, "FRIEND", 3)))
	assert.False(t, s.IsUndirected(rel(1, "RATED", 2).WithRelationshipID(10)))
	assert.True(t, s.RelationshipsInvolving(mapping.NativeID(3))[0].IsUndirected())

	s.Remove(rel(2, "FRIEND", 3))
	assert.False(t, s.IsUndirected(rel(2, "FRIEND", 3)))
}
