package mapping_test

import (
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRegistry_RegisterLoaded(t *testing.T) {
	r := mapping.NewEntityRegistry()
	first := persisted("world 1", 1)
	again := persisted("world 1 (reloaded)", 1)

	assert.Same(t, first, r.RegisterLoaded(mapping.NativeID(1), first))
	assert.Same(t, first, r.RegisterLoaded(mapping.NativeID(1), again), "cached object must win")

	id, ok := r.IdentityOf(first)
	require.True(t, ok)
	assert.Equal(t, mapping.NativeID(1), id)

	_, ok = r.IdentityOf(again)
	assert.False(t, ok, "the discarded copy must not be registered")

	obj, ok := r.ObjectOf(mapping.NativeID(1))
	require.True(t, ok)
	assert.Same(t, first, obj)
}

func TestEntityRegistry_UnknownLookupsAreAbsent(t *testing.T) {
	r := mapping.NewEntityRegistry()

	_, ok := r.ObjectOf(mapping.NativeID(42))
	assert.False(t, ok)
	_, ok = r.IdentityOf(newNode("stranger"))
	assert.False(t, ok)
	_, ok = r.IdentityOf(nil)
	assert.False(t, ok)
	_, ok = r.LinkOf(7)
	assert.False(t, ok)
}

func TestEntityRegistry_AssignTemporaryIdentity(t *testing.T) {
	r := mapping.NewEntityRegistry()
	a, b := newNode("a"), newNode("b")

	idA := r.AssignTemporaryIdentity(a)
	idB := r.AssignTemporaryIdentity(b)

	assert.True(t, idA.IsTemporary())
	assert.True(t, idB.IsTemporary())
	assert.NotEqual(t, idA, idB)

	tmp, _ := idA.Temporary()
	assert.Less(t, tmp, int64(0))

	assert.Equal(t, idA, r.AssignTemporaryIdentity(a), "an entity keeps its identity")
	assert.Equal(t, 2, r.Len())
}

func TestEntityRegistry_Views(t *testing.T) {
	r := mapping.NewEntityRegistry()
	owner := persisted("candidate", 3)
	v := &view{owner: owner}

	r.RegisterLoaded(mapping.NativeID(3), owner)
	r.RegisterView(mapping.NativeID(3), v)

	id, ok := r.IdentityOf(v)
	require.True(t, ok)
	assert.Equal(t, mapping.NativeID(3), id)

	obj, _ := r.ObjectOf(id)
	assert.Same(t, owner, obj, "lookups by identity return the primary object")

	r.Evict(mapping.NativeID(3))
	_, ok = r.IdentityOf(v)
	assert.False(t, ok)
	_, ok = r.IdentityOf(owner)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestEntityRegistry_AssignTemporaryIdentityWithViews(t *testing.T) {
	r := mapping.NewEntityRegistry()

	owner := newNode("candidate")
	v := withView(owner)
	id := r.AssignTemporaryIdentity(owner, v)
	viewID, ok := r.IdentityOf(v)
	require.True(t, ok)
	assert.Equal(t, id, viewID)

	// a view registered on its own is taken over by its owner
	late := newNode("late")
	lateView := withView(late)
	first := r.AssignTemporaryIdentity(lateView)
	assert.Equal(t, first, r.AssignTemporaryIdentity(late, lateView))
	obj, _ := r.ObjectOf(first)
	assert.Same(t, late, obj)

	r.Evict(first)
	_, ok = r.IdentityOf(lateView)
	assert.False(t, ok, "eviction forgets the adopted view")
	assert.Equal(t, 1, r.Len())
}

func TestEntityRegistry_AdoptRequiresAView(t *testing.T) {
	r := mapping.NewEntityRegistry()
	a, b := persisted("a", 1), persisted("b", 1)
	r.RegisterLoaded(mapping.NativeID(1), a)

	assert.False(t, r.Adopt(mapping.NativeID(1), b, nil))
	obj, _ := r.ObjectOf(mapping.NativeID(1))
	assert.Same(t, a, obj)
}

func TestEntityRegistry_Links(t *testing.T) {
	r := mapping.NewEntityRegistry()
	link := &rating{id: ptr(11), stars: 4}

	assert.Same(t, link, r.RegisterLink(11, link))
	assert.Same(t, link, r.RegisterLink(11, &rating{id: ptr(11)}))
	assert.Equal(t, 1, r.LinkCount())

	r.EvictLink(11)
	_, ok := r.LinkOf(11)
	assert.False(t, ok)
}

func TestEntityRegistry_Fingerprints(t *testing.T) {
	r := mapping.NewEntityRegistry()
	r.SetFingerprint(mapping.NativeID(1), 99)
	_, ok := r.Fingerprint(mapping.NativeID(1))
	assert.False(t, ok, "fingerprints are only kept for registered nodes")

	r.RegisterLoaded(mapping.NativeID(1), persisted("a", 1))
	r.SetFingerprint(mapping.NativeID(1), 99)
	fp, ok := r.Fingerprint(mapping.NativeID(1))
	assert.True(t, ok)
	assert.Equal(t, uint64(99), fp)
}
