// Package repo implements the post and comment repositories on top of the
// document store.
package repo

import (
	"html"
	"strings"

	"github.com/Kzkhanhacg547/FRC/internal/attach"
	"github.com/Kzkhanhacg547/FRC/internal/models"
	"github.com/Kzkhanhacg547/FRC/internal/store"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 100
	previewContentLen = 500
)

// Posts is the post repository. All state lives in the store.
type Posts struct {
	Store *store.Store
}

func NewPosts(st *store.Store) *Posts {
	return &Posts{Store: st}
}

// sanitize HTML-escapes user text before storage.
func sanitize(s string) string {
	return html.EscapeString(s)
}

// clampPage applies the defaults and bounds: page >= 1, pageSize in [1,100]
// with 0 meaning "not given".
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// truncate cuts on rune boundaries so previews stay valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func matches(p *models.Post, term string) bool {
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term)
}

// List returns one page of post previews, newest first. A non-empty search
// term filters on title or content, case-insensitively, before pagination.
// Zero or negative page and pageSize fall back to the defaults.
func (r *Posts) List(page, pageSize int, search string) ([]models.PostPreview, models.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	term := strings.ToLower(strings.TrimSpace(search))

	previews := []models.PostPreview{}
	var pg models.Pagination
	err := r.Store.View(func(tx store.Tx) error {
		filtered := make([]*models.Post, 0, len(*tx.Posts))
		for i := range *tx.Posts {
			p := &(*tx.Posts)[i]
			if term == "" || matches(p, term) {
				filtered = append(filtered, p)
			}
		}
		total := len(filtered)
		totalPages := (total + pageSize - 1) / pageSize
		pg = models.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: pageSize,
		}
		start := (page - 1) * pageSize
		if start >= total {
			return nil
		}
		end := start + pageSize
		if end > total {
			end = total
		}
		for _, p := range filtered[start:end] {
			count := 0
			for i := range *tx.Comments {
				if (*tx.Comments)[i].PostID == p.ID {
					count++
				}
			}
			previews = append(previews, models.PostPreview{
				ID:           p.ID,
				Title:        p.Title,
				Content:      truncate(p.Content, previewContentLen),
				Author:       p.Author,
				Files:        p.Meta(),
				CommentCount: count,
				CreatedAt:    p.CreatedAt,
				UpdatedAt:    p.UpdatedAt,
			})
		}
		return nil
	})
	return previews, pg, err
}

// Get returns the full post, attachment payloads included, with its comments
// nested in insertion order.
func (r *Posts) Get(id string) (*models.PostDetail, error) {
	var detail *models.PostDetail
	err := r.Store.View(func(tx store.Tx) error {
		p := findPost(tx, id)
		if p == nil {
			return models.ErrNotFound
		}
		comments := make([]models.Comment, 0)
		for _, c := range *tx.Comments {
			if c.PostID == id {
				comments = append(comments, c)
			}
		}
		detail = &models.PostDetail{Post: *p, Comments: comments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Create stores a new post authored by the given identity and returns it with
// attachment payloads stripped. New posts go to the front of the collection
// so listing stays newest first without sorting.
func (r *Posts) Create(title, content string, uploads []models.Upload, author string) (*models.PostCreated, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, models.Validationf("Title and content are required")
	}
	post := models.Post{
		ID:      r.Store.NextID(),
		Title:   sanitize(title),
		Content: sanitize(content),
		Author:  author,
		Files:   encodeUploads(uploads),
	}
	err := r.Store.Update(func(tx store.Tx) error {
		post.CreatedAt = now()
		*tx.Posts = append([]models.Post{post}, *tx.Posts...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := post.Created()
	return &view, nil
}

// Update applies a partial update: empty title/content keep the prior value,
// and a non-empty uploads list wholly replaces the attachment list.
func (r *Posts) Update(id, title, content string, uploads []models.Upload) (*models.PostCreated, error) {
	var view models.PostCreated
	err := r.Store.Update(func(tx store.Tx) error {
		p := findPost(tx, id)
		if p == nil {
			return models.ErrNotFound
		}
		if strings.TrimSpace(title) != "" {
			p.Title = sanitize(title)
		}
		if strings.TrimSpace(content) != "" {
			p.Content = sanitize(content)
		}
		if len(uploads) > 0 {
			p.Files = encodeUploads(uploads)
		}
		t := now()
		p.UpdatedAt = &t
		view = p.Created()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Delete removes the post and every comment referencing it in the same
// persisted snapshot.
func (r *Posts) Delete(id string) error {
	return r.Store.Update(func(tx store.Tx) error {
		if findPost(tx, id) == nil {
			return models.ErrNotFound
		}
		posts := make([]models.Post, 0, len(*tx.Posts)-1)
		for _, p := range *tx.Posts {
			if p.ID != id {
				posts = append(posts, p)
			}
		}
		comments := make([]models.Comment, 0, len(*tx.Comments))
		for _, c := range *tx.Comments {
			if c.PostID != id {
				comments = append(comments, c)
			}
		}
		*tx.Posts = posts
		*tx.Comments = comments
		return nil
	})
}

// GetFile renders one attachment as a data URI. index is zero-based; any
// index outside the post's current file list resolves to NotFound.
func (r *Posts) GetFile(postID string, index int) (*models.FileView, error) {
	var view *models.FileView
	err := r.Store.View(func(tx store.Tx) error {
		p := findPost(tx, postID)
		if p == nil {
			return models.ErrNotFound
		}
		if index < 0 || index >= len(p.Files) {
			return models.ErrNotFound
		}
		f := p.Files[index]
		view = &models.FileView{
			Originalname: f.Originalname,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
			DataURL:      attach.DataURI(f.Mimetype, f.Content),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func encodeUploads(uploads []models.Upload) []models.Attachment {
	files := make([]models.Attachment, 0, len(uploads))
	for _, u := range uploads {
		files = append(files, models.Attachment{
			Originalname: u.Originalname,
			Mimetype:     u.Mimetype,
			Size:         len(u.Data),
			Content:      attach.Encode(u.Data),
		})
	}
	return files
}

func findPost(tx store.Tx, id string) *models.Post {
	for i := range *tx.Posts {
		if (*tx.Posts)[i].ID == id {
			return &(*tx.Posts)[i]
		}
	}
	return nil
}
