//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/cypher"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/world"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentLoadsKeepResultsApart(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	require.NoError(t, s.Save(ctx, world.New("world 1", 1), session.WithDepth(0)))
	require.NoError(t, s.Save(ctx, world.New("world 2", 2), session.WithDepth(0)))

	const iterations = 1000
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for range iterations {
		for _, name := range []string{"world 1", "world 2"} {
			g.Go(func() error {
				worlds, err := session.LoadAll[world.World](gctx, s, cypher.NewFilter("name", name))
				if err != nil {
					return err
				}
				if len(worlds) != 1 {
					return fmt.Errorf("loading %q returned %d worlds", name, len(worlds))
				}
				if worlds[0].Name != name {
					return fmt.Errorf("loading %q returned %q", name, worlds[0].Name)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 2, s.Context().Stats().Nodes)
}

func TestConcurrentLoadsShareObjects(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	earth, mars := world.New("earth", 1), world.New("mars", 2)
	earth.Reachable = []*world.World{mars}
	mars.Reachable = []*world.World{earth}
	require.NoError(t, s.Save(ctx, earth))
	assert.Equal(t, int64(1), count(t, "MATCH ()-[r:REACHABLE_BY_ROCKET]->() RETURN count(r)", nil))

	id, ok := earth.NativeID()
	require.True(t, ok)
	s.Clear()

	const workers = 50
	loaded := make([]*world.World, workers)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			w, err := session.Load[world.World](ctx, s, id)
			loaded[i] = w
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, w := range loaded[1:] {
		assert.Same(t, loaded[0], w)
	}
	require.Len(t, loaded[0].Reachable, 1)
	assert.Equal(t, "mars", loaded[0].Reachable[0].Name)
}
