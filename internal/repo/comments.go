package repo

import (
	"regexp"
	"strings"
	"time"

	"github.com/Kzkhanhacg547/FRC/internal/models"
	"github.com/Kzkhanhacg547/FRC/internal/store"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func now() time.Time {
	return time.Now().UTC()
}

// Comments is the comment repository.
type Comments struct {
	Store *store.Store
}

func NewComments(st *store.Store) *Comments {
	return &Comments{Store: st}
}

// ListForPost returns the post's comments in insertion order (oldest first).
// An unknown post id yields an empty sequence, not an error.
func (r *Comments) ListForPost(postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.Store.View(func(tx store.Tx) error {
		for _, c := range *tx.Comments {
			if c.PostID == postID {
				comments = append(comments, c)
			}
		}
		return nil
	})
	return comments, err
}

// Create validates the fields, checks the parent post exists, and appends the
// comment so display order stays chronological.
func (r *Comments) Create(postID, name, email, message string) (*models.Comment, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(message) == "" {
		return nil, models.Validationf("Name, email, and message are required")
	}
	if !emailShape.MatchString(email) {
		return nil, models.Validationf("Invalid email format")
	}
	comment := models.Comment{
		ID:      r.Store.NextID(),
		PostID:  postID,
		Name:    sanitize(name),
		Email:   sanitize(email),
		Message: sanitize(message),
	}
	err := r.Store.Update(func(tx store.Tx) error {
		if findPost(tx, postID) == nil {
			return models.ErrNotFound
		}
		comment.CreatedAt = now()
		*tx.Comments = append(*tx.Comments, comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a single comment by id.
func (r *Comments) Delete(id string) error {
	return r.Store.Update(func(tx store.Tx) error {
		for i := range *tx.Comments {
			if (*tx.Comments)[i].ID == id {
				*tx.Comments = append((*tx.Comments)[:i], (*tx.Comments)[i+1:]...)
				return nil
			}
		}
		return models.ErrNotFound
	})
}
