package mapping

import (
	"fmt"
	"strings"
)

// TypeTag names a mapped domain type. It is carried on relationships for
// statement generation only and never takes part in equality.
type TypeTag string

// MappedRelationship is a light-weight record of a relationship between two
// nodes, always directed from StartNodeID to EndNodeID.
//
// The relationship id is recorded for relationship entities and left unset
// for simple relationships, whose identity collapses to (start, type, end).
type MappedRelationship struct {
	StartNodeID   NodeID
	Type          string
	EndNodeID     NodeID
	StartNodeType TypeTag
	EndNodeType   TypeTag

	relationshipID    int64
	hasRelationshipID bool
	undirected        bool
}

// relationshipKey is the identity of a MappedRelationship.
type relationshipKey struct {
	start             NodeID
	relType           string
	end               NodeID
	relationshipID    int64
	hasRelationshipID bool
}

// structuralKey ignores the relationship id.
type structuralKey struct {
	start   NodeID
	relType string
	end     NodeID
}

// NewMappedRelationship returns a simple relationship record.
func NewMappedRelationship(start NodeID, relType string, end NodeID, startType, endType TypeTag) MappedRelationship {
	return MappedRelationship{
		StartNodeID:   start,
		Type:          relType,
		EndNodeID:     end,
		StartNodeType: startType,
		EndNodeType:   endType,
	}
}

// WithRelationshipID returns a copy of r identified by the given relationship id.
func (r MappedRelationship) WithRelationshipID(id int64) MappedRelationship {
	r.relationshipID = id
	r.hasRelationshipID = true
	return r
}

// WithoutRelationshipID returns a copy of r with no relationship id.
func (r MappedRelationship) WithoutRelationshipID() MappedRelationship {
	r.relationshipID = 0
	r.hasRelationshipID = false
	return r
}

// AsUndirected returns a copy of r marked as backing an undirected domain relation.
func (r MappedRelationship) AsUndirected() MappedRelationship {
	r.undirected = true
	return r
}

// RelationshipID returns the relationship id, if r is backed by a relationship entity.
func (r MappedRelationship) RelationshipID() (int64, bool) {
	return r.relationshipID, r.hasRelationshipID
}

// IsUndirected reports whether r was built from an undirected relation.
func (r MappedRelationship) IsUndirected() bool {
	return r.undirected
}

// IsSelfReference reports whether both ends of r are the same node.
func (r MappedRelationship) IsSelfReference() bool {
	return r.StartNodeID == r.EndNodeID
}

// IdentityEquals compares start, type, end and relationship id.
func (r MappedRelationship) IdentityEquals(o MappedRelationship) bool {
	return r.key() == o.key()
}

// StructuralEquals compares start, type and end, ignoring the relationship id.
func (r MappedRelationship) StructuralEquals(o MappedRelationship) bool {
	return r.structuralKey() == o.structuralKey()
}

func (r MappedRelationship) key() relationshipKey {
	return relationshipKey{
		start:             r.StartNodeID,
		relType:           r.Type,
		end:               r.EndNodeID,
		relationshipID:    r.relationshipID,
		hasRelationshipID: r.hasRelationshipID,
	}
}

func (r MappedRelationship) structuralKey() structuralKey {
	return structuralKey{start: r.StartNodeID, relType: r.Type, end: r.EndNodeID}
}

func (r MappedRelationship) reversed() MappedRelationship {
	r.StartNodeID, r.EndNodeID = r.EndNodeID, r.StartNodeID
	r.StartNodeType, r.EndNodeType = r.EndNodeType, r.StartNodeType
	return r
}

// canonical orients an undirected relationship so that both traversal
// directions produce the same record.
func (r MappedRelationship) canonical() MappedRelationship {
	if r.undirected && r.EndNodeID.less(r.StartNodeID) {
		return r.reversed()
	}
	return r
}

// rewrite replaces every occurrence of from with to.
func (r MappedRelationship) rewrite(from, to NodeID) MappedRelationship {
	if r.StartNodeID == from {
		r.StartNodeID = to
	}
	if r.EndNodeID == from {
		r.EndNodeID = to
	}
	return r
}

func (r MappedRelationship) String() string {
	id := "-"
	if r.hasRelationshipID {
		id = fmt.Sprintf("%d", r.relationshipID)
	}
	arrow := "->"
	if r.undirected {
		arrow = "-"
	}
	return fmt.Sprintf("(%s)-[%s:%s]%s(%s)", r.StartNodeID, id, r.Type, arrow, r.EndNodeID)
}

func compareRelationships(a, b MappedRelationship) int {
	switch {
	case a.StartNodeID != b.StartNodeID:
		if a.StartNodeID.less(b.StartNodeID) {
			return -1
		}
		return 1
	case a.Type != b.Type:
		return strings.Compare(a.Type, b.Type)
	case a.EndNodeID != b.EndNodeID:
		if a.EndNodeID.less(b.EndNodeID) {
			return -1
		}
		return 1
	case a.hasRelationshipID != b.hasRelationshipID:
		if !a.hasRelationshipID {
			return -1
		}
		return 1
	case a.relationshipID < b.relationshipID:
		return -1
	case a.relationshipID > b.relationshipID:
		return 1
	}
	return 0
}
