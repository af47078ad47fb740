package mapping

import "fmt"

// NodeID identifies a node within a session, either by the id the store
// assigned to it or, before the first save, by a negative session-local
// temporary id. Exactly one of the two forms is authoritative.
//
// NodeID is a comparable value and can be used as a map key. Two values are
// equal only when both carry the same native id, or both are temporary with
// the same temporary id.
type NodeID struct {
	native    int64
	temporary int64
	hasNative bool
}

// NativeID returns the identity of a persisted node.
func NativeID(id int64) NodeID {
	return NodeID{native: id, hasNative: true}
}

// TemporaryID returns a session-local identity for an unsaved node.
// Temporary ids are negative; positive input is negated.
func TemporaryID(id int64) NodeID {
	if id > 0 {
		id = -id
	}
	return NodeID{temporary: id}
}

// Native returns the store-assigned id, if any.
func (n NodeID) Native() (int64, bool) {
	return n.native, n.hasNative
}

// Temporary returns the temporary id of a node that has not been persisted yet.
func (n NodeID) Temporary() (int64, bool) {
	if n.hasNative || n.temporary == 0 {
		return 0, false
	}
	return n.temporary, true
}

// IsTemporary reports whether n is a temporary identity.
func (n NodeID) IsTemporary() bool {
	_, ok := n.Temporary()
	return ok
}

// IsZero reports whether n is the zero value, which identifies nothing.
func (n NodeID) IsZero() bool {
	return n == NodeID{}
}

func (n NodeID) String() string {
	switch {
	case n.hasNative:
		return fmt.Sprintf("%d", n.native)
	case n.temporary != 0:
		return fmt.Sprintf("tmp%d", n.temporary)
	default:
		return "<none>"
	}
}

// less orders native ids before temporary ids, each ascending.
func (n NodeID) less(o NodeID) bool {
	if n.hasNative != o.hasNative {
		return n.hasNative
	}
	if n.hasNative {
		return n.native < o.native
	}
	return n.temporary < o.temporary
}
