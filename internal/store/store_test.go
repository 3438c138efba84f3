package store

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kzkhanhacg547/FRC/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func openTest(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, quietLogger())
	require.NoError(t, err)
	return s
}

func TestOpenEmpty(t *testing.T) {
	s := openTest(t, t.TempDir())
	err := s.View(func(tx Tx) error {
		assert.Empty(t, *tx.Posts)
		assert.Empty(t, *tx.Comments)
		return nil
	})
	require.NoError(t, err)
}

func TestPersistReloadKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	s := openTest(t, dir)
	for i := 0; i < 5; i++ {
		post := models.Post{
			ID:        s.NextID(),
			Title:     "t" + strconv.Itoa(i),
			Content:   "c",
			Author:    "admin",
			Files:     []models.Attachment{},
			CreatedAt: time.Now().UTC(),
		}
		err := s.Update(func(tx Tx) error {
			*tx.Posts = append([]models.Post{post}, *tx.Posts...)
			*tx.Comments = append(*tx.Comments, models.Comment{
				ID:        s.NextID(),
				PostID:    post.ID,
				Name:      "n",
				Email:     "a@b.co",
				Message:   "m",
				CreatedAt: time.Now().UTC(),
			})
			return nil
		})
		require.NoError(t, err)
	}

	var wantPosts []models.Post
	var wantComments []models.Comment
	require.NoError(t, s.View(func(tx Tx) error {
		wantPosts = append(wantPosts, *tx.Posts...)
		wantComments = append(wantComments, *tx.Comments...)
		return nil
	}))

	reopened := openTest(t, dir)
	require.NoError(t, reopened.View(func(tx Tx) error {
		require.Len(t, *tx.Posts, len(wantPosts))
		for i := range wantPosts {
			assert.Equal(t, wantPosts[i].ID, (*tx.Posts)[i].ID)
			assert.Equal(t, wantPosts[i].Title, (*tx.Posts)[i].Title)
		}
		require.Len(t, *tx.Comments, len(wantComments))
		for i := range wantComments {
			assert.Equal(t, wantComments[i].ID, (*tx.Comments)[i].ID)
		}
		return nil
	}))
}

func TestMalformedFileResetsCollection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte("{ not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "comments.json"),
		[]byte(`[{"id":"1","postId":"0","name":"n","email":"a@b.co","message":"m","createdAt":"2025-01-01T00:00:00Z"}]`), 0644))

	s := openTest(t, dir)
	require.NoError(t, s.View(func(tx Tx) error {
		assert.Empty(t, *tx.Posts)
		assert.Len(t, *tx.Comments, 1)
		return nil
	}))
}

func TestNextIDUniqueAndIncreasing(t *testing.T) {
	s := openTest(t, t.TempDir())
	seen := map[string]bool{}
	var prev int64
	for i := 0; i < 1000; i++ {
		id := s.NextID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		require.Greater(t, n, prev)
		prev = n
	}
}

func TestNextIDSeededFromDisk(t *testing.T) {
	dir := t.TempDir()
	s := openTest(t, dir)
	// far-future id on disk must not be reissued after reload
	future := time.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, s.Update(func(tx Tx) error {
		*tx.Posts = append(*tx.Posts, models.Post{ID: strconv.FormatInt(future, 10), Files: []models.Attachment{}})
		return nil
	}))

	reopened := openTest(t, dir)
	n, err := strconv.ParseInt(reopened.NextID(), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, n, future)
}

func TestUpdatePersistFailure(t *testing.T) {
	dir := t.TempDir()
	s := openTest(t, dir)
	// a directory in place of the backing file makes the write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "posts.json"), 0755))

	err := s.Update(func(tx Tx) error {
		*tx.Posts = append(*tx.Posts, models.Post{ID: s.NextID(), Files: []models.Attachment{}})
		return nil
	})
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)

	// in-memory state stays authoritative
	require.NoError(t, s.View(func(tx Tx) error {
		assert.Len(t, *tx.Posts, 1)
		return nil
	}))
}
