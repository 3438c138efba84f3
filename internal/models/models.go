package models

import "time"

// Post is a published article. Files are stored inline with their encoded
// payloads; response views strip the payloads (see PostPreview and Created).
type Post struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Author    string       `json:"author"`
	Files     []Attachment `json:"files"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
}

// Attachment is a binary file embedded in a post. Content is the base64
// payload; Size is the byte count of the decoded original.
type Attachment struct {
	Originalname string `json:"originalname"`
	Mimetype     string `json:"mimetype"`
	Size         int    `json:"size"`
	Content      string `json:"base64"`
}

// Comment is a visitor reply attached to exactly one post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttachmentMeta is an attachment without its payload.
type AttachmentMeta struct {
	Originalname string `json:"originalname"`
	Mimetype     string `json:"mimetype"`
	Size         int    `json:"size"`
}

// Upload is a raw file handed to the post repository before encoding.
type Upload struct {
	Originalname string
	Mimetype     string
	Data         []byte
}

// PostPreview is a list item: truncated content, payload-free file metadata
// and a computed comment count.
type PostPreview struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	Author       string           `json:"author"`
	Files        []AttachmentMeta `json:"files"`
	CommentCount int              `json:"commentCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

// PostDetail is a full post with its comments nested.
type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

// PostCreated is the create/update response view: the stored record with
// attachment payloads stripped.
type PostCreated struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Author    string           `json:"author"`
	Files     []AttachmentMeta `json:"files"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

// FileView is a single attachment rendered as an inline data URI.
type FileView struct {
	Originalname string `json:"originalname"`
	Mimetype     string `json:"mimetype"`
	Size         int    `json:"size"`
	DataURL      string `json:"dataUrl"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Meta returns the post's attachments without payloads. Always non-nil so
// responses serialize as [] rather than null.
func (p *Post) Meta() []AttachmentMeta {
	metas := make([]AttachmentMeta, 0, len(p.Files))
	for _, f := range p.Files {
		metas = append(metas, AttachmentMeta{
			Originalname: f.Originalname,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
		})
	}
	return metas
}

// Created returns the payload-free response view of the post.
func (p *Post) Created() PostCreated {
	return PostCreated{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		Files:     p.Meta(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
