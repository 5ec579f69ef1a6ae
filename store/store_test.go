package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	s := NewMemoryStore()

	favorites, err := s.Favorites(KindLive)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	require.NoError(t, s.SaveFavorite(KindLive, "42"))
	require.NoError(t, s.SaveFavorite(KindLive, "43"))
	require.NoError(t, s.SaveFavorite(KindLive, "42")) // duplicate is a no-op

	favorites, err = s.Favorites(KindLive)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "43"}, favorites)

	// Kinds are independent
	favorites, err = s.Favorites(KindMovie)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	require.NoError(t, s.RemoveFavorite(KindLive, "42"))
	require.NoError(t, s.RemoveFavorite(KindLive, "missing"))
	favorites, err = s.Favorites(KindLive)
	require.NoError(t, err)
	assert.Equal(t, []string{"43"}, favorites)
}

func TestProgress(t *testing.T) {
	s := NewMemoryStore()

	position, err := s.Progress(KindMovie, "7")
	require.NoError(t, err)
	assert.Zero(t, position)

	require.NoError(t, s.SaveProgress(KindMovie, "7", 42*time.Minute, 2*time.Hour))
	position, err = s.Progress(KindMovie, "7")
	require.NoError(t, err)
	assert.Equal(t, 42*time.Minute, position)

	require.NoError(t, s.ClearProgress(KindMovie, "7"))
	position, err = s.Progress(KindMovie, "7")
	require.NoError(t, err)
	assert.Zero(t, position)
}

func TestLastWatchedCapAndDedupe(t *testing.T) {
	s := NewMemoryStore()

	for i := 0; i < 25; i++ {
		require.NoError(t, s.SaveProgress(KindMovie, fmt.Sprintf("m%d", i), time.Minute, time.Hour))
	}
	// Rewatch an old one: promoted to the front, not duplicated.
	require.NoError(t, s.SaveProgress(KindMovie, "m20", 2*time.Minute, time.Hour))

	recent, err := s.LastWatched(KindMovie)
	require.NoError(t, err)
	require.Len(t, recent, 20, "most-recently-watched list is capped")
	assert.Equal(t, "m20", recent[0], "most recent first")
	assert.Equal(t, "m24", recent[1])

	seen := make(map[string]bool)
	for _, id := range recent {
		assert.False(t, seen[id], "no duplicates in last-watched")
		seen[id] = true
	}
}

func TestClearAll(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.SaveFavorite(KindLive, "42"))
	require.NoError(t, s.SaveProgress(KindMovie, "7", time.Minute, time.Hour))

	require.NoError(t, s.ClearAll())

	favorites, err := s.Favorites(KindLive)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	position, err := s.Progress(KindMovie, "7")
	require.NoError(t, err)
	assert.Zero(t, position)

	recent, err := s.LastWatched(KindMovie)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SaveFavorite(KindSeries, "101"))
	require.NoError(t, s.SaveProgress(KindSeries, "101", 10*time.Minute, time.Hour))

	// Reopen and observe the same state.
	reopened, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	favorites, err := reopened.Favorites(KindSeries)
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, favorites)

	position, err := reopened.Progress(KindSeries, "101")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, position)

	recent, err := reopened.LastWatched(KindSeries)
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, recent)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err, "a corrupt state file starts fresh, not fatal")

	favorites, err := s.Favorites(KindLive)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
