package metadata_test

import (
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyReaders(t *testing.T) {
	props := map[string]any{
		"name":   "world 1",
		"moons":  int64(2),
		"ratio":  0.5,
		"tags":   []any{"a", "b"},
		"broken": []any{"a", int64(1)},
	}

	s, err := metadata.String(props, "name")
	require.NoError(t, err)
	assert.Equal(t, "world 1", s)

	n, err := metadata.Int64(props, "moons")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	f, err := metadata.Float64(props, "ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	f, err = metadata.Float64(props, "moons")
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	tags, err := metadata.Strings(props, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	_, err = metadata.Strings(props, "broken")
	assert.Error(t, err)
	_, err = metadata.String(props, "moons")
	assert.Error(t, err)
	_, err = metadata.Int64(props, "name")
	assert.Error(t, err)

	missing, err := metadata.String(props, "absent")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
