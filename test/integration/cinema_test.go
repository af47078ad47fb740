//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/cinema"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCinema_RatingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	alice := cinema.NewPerson("Alice")
	alice.Labels = []string{"Critic"}
	matrix := cinema.NewMovie("The Matrix", 1999)
	rating := alice.Rate(matrix, 5, "classic")
	require.NoError(t, s.Save(ctx, alice))

	ratingID, ok := rating.NativeID()
	require.True(t, ok)
	link, ok := s.Context().LinkOf(ratingID)
	require.True(t, ok)
	assert.Same(t, rating, link)
	assert.Equal(t, int64(1), count(t, "MATCH (:Person:Critic {name: 'Alice'})-[r:RATED {stars: 5}]->(:Movie) RETURN count(r)", nil))

	movieID, ok := matrix.NativeID()
	require.True(t, ok)

	fresh := session.NewFactory(s.Metadata(), dbService, nil, session.DefaultConfig()).OpenSession()
	movie, err := session.Load[cinema.Movie](ctx, fresh, movieID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)
	require.Len(t, movie.Ratings, 1)
	assert.Equal(t, int64(5), movie.Ratings[0].Stars)
	assert.Equal(t, "classic", movie.Ratings[0].Comment)
	require.NotNil(t, movie.Ratings[0].Person)
	assert.Equal(t, "Alice", movie.Ratings[0].Person.Name)
	assert.Contains(t, movie.Ratings[0].Person.Labels, "Critic")
}

func TestCinema_FriendshipIsStoredOnce(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	alice, bob := cinema.NewPerson("Alice"), cinema.NewPerson("Bob")
	alice.Befriend(bob)
	require.NoError(t, s.Save(ctx, alice))
	assert.Equal(t, int64(1), count(t, "MATCH ()-[r:FRIEND]->() RETURN count(r)", nil))

	// Saving from the other side finds nothing to do.
	require.NoError(t, s.Save(ctx, bob))
	assert.Equal(t, int64(1), count(t, "MATCH ()-[r:FRIEND]->() RETURN count(r)", nil))

	alice.Friends = nil
	bob.Friends = nil
	require.NoError(t, s.SaveAll(ctx, []any{alice, bob}))
	assert.Equal(t, int64(0), count(t, "MATCH ()-[r:FRIEND]->() RETURN count(r)", nil))
}
