// Package store owns the two persisted collections (posts and comments) and
// couples every mutation to a synchronous whole-file rewrite of both.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kzkhanhacg547/FRC/internal/models"
)

const (
	postsFile    = "posts.json"
	commentsFile = "comments.json"
)

// PersistenceError reports a failed durable write. The in-memory state is
// still authoritative, but the last successful snapshot on disk is stale, so
// the mutation must be surfaced to the caller as a failure.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store holds both collections in memory. All access goes through View and
// Update so reads ride an RLock and every mutation is serialized and
// persisted before it is acknowledged.
type Store struct {
	mu       sync.RWMutex
	dir      string
	log      *logrus.Logger
	posts    []models.Post
	comments []models.Comment

	idMu   sync.Mutex
	lastID int64
}

// Tx exposes the collections to a View or Update closure. Update closures may
// replace the slices through the pointers; the replacement becomes the
// persisted state.
type Tx struct {
	Posts    *[]models.Post
	Comments *[]models.Comment
}

// Open creates the data directory if needed and loads both collections. A
// missing backing file leaves its collection empty; a malformed one is logged
// and reset rather than aborting startup.
func Open(dir string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	s := &Store{
		dir:      dir,
		log:      logger,
		posts:    []models.Post{},
		comments: []models.Comment{},
	}
	if err := loadCollection(s, postsFile, &s.posts); err != nil {
		return nil, err
	}
	if err := loadCollection(s, commentsFile, &s.comments); err != nil {
		return nil, err
	}
	s.seedIDs()
	s.log.WithFields(logrus.Fields{
		"posts":    len(s.posts),
		"comments": len(s.comments),
		"dir":      dir,
	}).Info("store loaded")
	return s, nil
}

func loadCollection[T any](s *Store, name string, dst *[]T) error {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.log.WithField("file", name).Info("no backing file, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.WithField("file", name).WithError(err).
			Warn("malformed backing file, resetting collection")
		*dst = []T{}
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

// seedIDs advances the id clock past the largest persisted id so restarts
// never reissue one.
func (s *Store) seedIDs() {
	bump := func(id string) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	for _, p := range s.posts {
		bump(p.ID)
	}
	for _, c := range s.comments {
		bump(c.ID)
	}
}

// NextID issues a strictly increasing decimal id derived from the millisecond
// clock. Calls within the same tick advance past the last issued value, so
// ids stay unique at any call rate.
func (s *Store) NextID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= s.lastID {
		now = s.lastID + 1
	}
	s.lastID = now
	return strconv.FormatInt(now, 10)
}

// View runs fn with shared read access. The closure must not mutate the
// collections.
func (s *Store) View(fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(Tx{Posts: &s.posts, Comments: &s.comments})
}

// Update runs fn with exclusive access and, if it succeeds, persists both
// collections before returning. A failed persist returns *PersistenceError;
// the in-memory mutation is kept.
func (s *Store) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(Tx{Posts: &s.posts, Comments: &s.comments}); err != nil {
		return err
	}
	return s.persistLocked()
}

// persistLocked rewrites both backing files. Caller holds the write lock.
func (s *Store) persistLocked() error {
	if err := s.writeCollection(postsFile, s.posts); err != nil {
		return err
	}
	return s.writeCollection(commentsFile, s.comments)
}

func (s *Store) writeCollection(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Path: name, Err: err}
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		s.log.WithField("file", name).WithError(err).Error("persist failed")
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// Close performs one final persist. Called on shutdown after the HTTP layer
// has drained.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(); err != nil {
		return err
	}
	s.log.Info("store closed, data saved")
	return nil
}
