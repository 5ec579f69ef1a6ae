// Package store persists favorites and watch progress. The data-access layer
// treats it as a black-box CRUD collaborator; the default implementation is
// a single JSON state file, written through on every mutation.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Kind identifies a content class.
type Kind string

const (
	KindLive   Kind = "live"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// maxLastWatched bounds the most-recently-watched list per kind.
const maxLastWatched = 20

// Store is the persistence boundary for favorites and watch progress.
type Store interface {
	SaveFavorite(kind Kind, id string) error
	RemoveFavorite(kind Kind, id string) error
	Favorites(kind Kind) ([]string, error)

	SaveProgress(kind Kind, id string, position, duration time.Duration) error
	Progress(kind Kind, id string) (time.Duration, error)
	ClearProgress(kind Kind, id string) error

	LastWatched(kind Kind) ([]string, error)

	ClearAll() error
}

type progressEntry struct {
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type state struct {
	Favorites   map[Kind][]string        `json:"favorites"`
	Progress    map[string]progressEntry `json:"progress"`
	LastWatched map[Kind][]string        `json:"last_watched"`
}

func newState() state {
	return state{
		Favorites:   make(map[Kind][]string),
		Progress:    make(map[string]progressEntry),
		LastWatched: make(map[Kind][]string),
	}
}

// FileStore is a Store backed by a JSON file. An empty path keeps all state
// in memory, which is what tests and ephemeral runs use.
type FileStore struct {
	path   string
	logger zerolog.Logger

	mu    sync.Mutex
	state state
}

// NewFileStore opens (or creates) the state file at path.
// A corrupt state file is logged and replaced rather than treated as fatal.
func NewFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger,
		state:  newState(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("State file corrupt, starting fresh")
		s.state = newState()
	}
	if s.state.Favorites == nil {
		s.state.Favorites = make(map[Kind][]string)
	}
	if s.state.Progress == nil {
		s.state.Progress = make(map[string]progressEntry)
	}
	if s.state.LastWatched == nil {
		s.state.LastWatched = make(map[Kind][]string)
	}

	return s, nil
}

// NewMemoryStore creates a Store that never touches disk.
func NewMemoryStore() *FileStore {
	return &FileStore{
		logger: zerolog.Nop(),
		state:  newState(),
	}
}

// SaveFavorite adds id to the favorites for kind. Saving an existing
// favorite is a no-op.
func (s *FileStore) SaveFavorite(kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.Favorites[kind] {
		if existing == id {
			return nil
		}
	}
	s.state.Favorites[kind] = append(s.state.Favorites[kind], id)
	return s.save()
}

// RemoveFavorite removes id from the favorites for kind.
func (s *FileStore) RemoveFavorite(kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := s.state.Favorites[kind]
	for i, existing := range favorites {
		if existing == id {
			s.state.Favorites[kind] = append(favorites[:i], favorites[i+1:]...)
			return s.save()
		}
	}
	return nil
}

// Favorites returns the favorite ids for kind.
func (s *FileStore) Favorites(kind Kind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := s.state.Favorites[kind]
	out := make([]string, len(favorites))
	copy(out, favorites)
	return out, nil
}

// SaveProgress records the playback position for the item and promotes it to
// the front of the kind's most-recently-watched list.
func (s *FileStore) SaveProgress(kind Kind, id string, position, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Progress[progressKey(kind, id)] = progressEntry{
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}

	// Promote to front of last-watched, deduplicated, capped.
	recent := s.state.LastWatched[kind]
	for i, existing := range recent {
		if existing == id {
			recent = append(recent[:i], recent[i+1:]...)
			break
		}
	}
	recent = append([]string{id}, recent...)
	if len(recent) > maxLastWatched {
		recent = recent[:maxLastWatched]
	}
	s.state.LastWatched[kind] = recent

	return s.save()
}

// Progress returns the stored playback position for the item, zero if none.
func (s *FileStore) Progress(kind Kind, id string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.state.Progress[progressKey(kind, id)]
	if !ok {
		return 0, nil
	}
	return entry.Position, nil
}

// ClearProgress forgets the playback position for the item.
func (s *FileStore) ClearProgress(kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state.Progress, progressKey(kind, id))
	return s.save()
}

// ClearAll wipes favorites, progress, and the last-watched lists.
func (s *FileStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = newState()
	return s.save()
}

// LastWatched returns the most-recently-watched ids for kind, newest first.
func (s *FileStore) LastWatched(kind Kind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.state.LastWatched[kind]
	out := make([]string, len(recent))
	copy(out, recent)
	return out, nil
}

// save writes the state file. Callers hold s.mu.
func (s *FileStore) save() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

func progressKey(kind Kind, id string) string {
	return string(kind) + "_" + id
}
