package mapping_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestContext_RegisterNode(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})

	id, err := ctx.RegisterNode(persisted("x", 4))
	require.NoError(t, err)
	assert.Equal(t, mapping.NativeID(4), id)

	fresh := newNode("fresh")
	tmp, err := ctx.RegisterNode(fresh)
	require.NoError(t, err)
	assert.True(t, tmp.IsTemporary())

	again, err := ctx.RegisterNode(fresh)
	require.NoError(t, err)
	assert.Equal(t, tmp, again)

	_, err = ctx.RegisterNode(persisted("other x", 4))
	assert.ErrorIs(t, err, mapping.ErrIdentityConflict)

	var nilNode *node
	_, err = ctx.RegisterNode(nilNode)
	assert.Error(t, err)
}

func TestContext_Promote(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	fresh := newNode("fresh")
	x := persisted("x", 1)
	load(t, ctx, []*node{x})

	tmp, err := ctx.RegisterNode(fresh)
	require.NoError(t, err)
	ctx.RegisterRelationship(mapping.NewMappedRelationship(mapping.NativeID(1), "LIKES", tmp, "Node", "Node"))

	require.NoError(t, ctx.Promote(tmp, 20))

	id, ok := ctx.IdentityOf(fresh)
	require.True(t, ok)
	assert.Equal(t, mapping.NativeID(20), id)
	assert.True(t, ctx.ContainsRelationship(rel(1, "LIKES", 20)))

	obj, ok := ctx.ObjectOf(tmp)
	require.True(t, ok, "a retired temporary identity still resolves")
	assert.Same(t, fresh, obj)
	assert.Len(t, ctx.RelationshipsInvolving(tmp), 1)

	err = ctx.Promote(mapping.NativeID(1), 30)
	assert.ErrorIs(t, err, mapping.ErrNotTemporary)
}

func TestContext_CommitConflictLeavesStateUntouched(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	existing := persisted("existing", 1)
	load(t, ctx, []*node{existing})

	a, b := newNode("a"), newNode("b")
	a.likes = []*node{b}
	delta, err := ctx.ComputeSaveDelta([]any{a}, unbounded)
	require.NoError(t, err)
	require.Len(t, delta.NewNodes, 2)
	before := ctx.Stats()

	err = ctx.Commit(mapping.Commit{
		Promotions: map[mapping.NodeID]int64{
			delta.NewNodes[0].ID: 2,
			delta.NewNodes[1].ID: 1,
		},
		Created: delta.ToCreate,
		Saved:   delta.NewNodes,
	})
	require.ErrorIs(t, err, mapping.ErrIdentityConflict)

	assert.Equal(t, before, ctx.Stats())
	for _, entry := range delta.NewNodes {
		id, ok := ctx.IdentityOf(entry.Entity)
		require.True(t, ok)
		assert.True(t, id.IsTemporary())
	}
	obj, _ := ctx.ObjectOf(mapping.NativeID(1))
	assert.Same(t, existing, obj)
	assert.Empty(t, ctx.Relationships())
}

func TestContext_CommitDuplicateTargets(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	first, err := ctx.RegisterNode(newNode("a"))
	require.NoError(t, err)
	second, err := ctx.RegisterNode(newNode("b"))
	require.NoError(t, err)

	err = ctx.Commit(mapping.Commit{Promotions: map[mapping.NodeID]int64{first: 7, second: 7}})
	assert.ErrorIs(t, err, mapping.ErrIdentityConflict)
}

func TestContext_CommitLinks(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	x, m := persisted("x", 1), persisted("m", 2)
	load(t, ctx, []*node{x, m})
	r := &rating{movie: m, stars: 5}
	x.ratings = []*rating{r}

	delta, err := ctx.ComputeSaveDelta([]any{x}, unbounded)
	require.NoError(t, err)
	require.Len(t, delta.ToCreate, 1)

	r.id = ptr(40)
	require.NoError(t, ctx.Commit(mapping.Commit{
		Created: []mapping.MappedRelationship{delta.ToCreate[0].WithRelationshipID(40)},
		Links:   map[int64]any{40: r},
	}))

	link, ok := ctx.LinkOf(40)
	require.True(t, ok)
	assert.Same(t, r, link)
	assert.True(t, ctx.ContainsRelationship(rel(1, "RATED", 2).WithRelationshipID(40)))

	delta, err = ctx.ComputeSaveDelta([]any{x}, unbounded)
	require.NoError(t, err)
	assert.True(t, delta.IsEmpty())
}

func TestContext_EvictNode(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	x, y, z := persisted("x", 1), persisted("y", 2), persisted("z", 3)
	load(t, ctx, []*node{x, y, z},
		rel(1, "LIKES", 2),
		rel(3, "LIKES", 1),
		rel(2, "LIKES", 3),
		rel(1, "RATED", 3).WithRelationshipID(9),
	)
	require.NoError(t, ctx.Update(func(tx *mapping.Tx) error {
		tx.RegisterLink(9, &rating{id: ptr(9), movie: z})
		return nil
	}))

	removed := ctx.EvictNode(mapping.NativeID(1))
	assert.Len(t, removed, 3)

	_, ok := ctx.ObjectOf(mapping.NativeID(1))
	assert.False(t, ok)
	_, ok = ctx.LinkOf(9)
	assert.False(t, ok)
	assert.Equal(t, mapping.Stats{Nodes: 2, Relationships: 1, Links: 0}, ctx.Stats())
}

func TestContext_Clear(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	x, y := persisted("x", 1), persisted("y", 2)
	x.likes = []*node{y}
	load(t, ctx, []*node{x, y}, rel(1, "LIKES", 2))
	_, err := ctx.RegisterNode(newNode("fresh"))
	require.NoError(t, err)

	ctx.Clear()
	assert.Equal(t, mapping.Stats{}, ctx.Stats())
	ctx.Clear()
	assert.Equal(t, mapping.Stats{}, ctx.Stats(), "clearing twice is the same as once")

	_, ok := ctx.IdentityOf(x)
	assert.False(t, ok)

	// a cleared context behaves like a new one
	cleared, err := ctx.ComputeSaveDelta([]any{x}, unbounded)
	require.NoError(t, err)
	fresh, err := mapping.NewContext(fakeMeta{}).ComputeSaveDelta([]any{x}, unbounded)
	require.NoError(t, err)
	assert.Equal(t, fresh.ToCreate, cleared.ToCreate)
	assert.Equal(t, fresh.ToDelete, cleared.ToDelete)
	assert.Len(t, cleared.DirtyNodes, 2, "nodes without a snapshot are written")
}

func TestContext_UpdateError(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	boom := fmt.Errorf("boom")
	err := ctx.Update(func(tx *mapping.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestContext_ConcurrentAccess(t *testing.T) {
	ctx := mapping.NewContext(fakeMeta{})
	const workers, perWorker = 8, 250

	var reads atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				id := int64(w*perWorker + i + 1)
				n := persisted(fmt.Sprintf("n%d", id), id)
				err := ctx.Update(func(tx *mapping.Tx) error {
					tx.RegisterLoaded(mapping.NativeID(id), n)
					if id > 1 {
						tx.RegisterRelationship(rel(id, "LIKES", id-1))
					}
					return tx.Snapshot(mapping.NativeID(id))
				})
				if err != nil {
					return err
				}
				if _, ok := ctx.ObjectOf(mapping.NativeID(id)); !ok {
					return fmt.Errorf("node %d not visible after registration", id)
				}
				ctx.ContainsRelationship(rel(id, "LIKES", id-1))
				ctx.Stats()
				reads.Add(1)
			}
			return nil
		})
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			fresh := newNode(fmt.Sprintf("fresh-%d", w))
			_, err := ctx.ComputeSaveDelta([]any{fresh}, unbounded)
			return err
		})
	}
	require.NoError(t, g.Wait())

	stats := ctx.Stats()
	assert.Equal(t, workers*perWorker+workers, stats.Nodes)
	assert.Equal(t, workers*perWorker-1, stats.Relationships)
	assert.Equal(t, int64(workers*perWorker), reads.Load())
}
