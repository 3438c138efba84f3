// Package server exposes the repositories as the JSON API consumed by the
// static front end.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kzkhanhacg547/FRC/internal/auth"
	"github.com/Kzkhanhacg547/FRC/internal/models"
	"github.com/Kzkhanhacg547/FRC/internal/repo"
	"github.com/Kzkhanhacg547/FRC/internal/store"
)

const (
	maxUploadBytes = 50 << 20
	maxUploadFiles = 10
)

// allowedFileTypes must match both the filename and the declared mimetype of
// every upload, as substrings of either, mirroring the deployed filter.
var allowedFileTypes = regexp.MustCompile(`jpeg|jpg|png|gif|pdf|doc|docx|txt|zip|mp4|webm`)

type Server struct {
	Posts    *repo.Posts
	Comments *repo.Comments
	Gate     *auth.Gate
	Log      *logrus.Logger

	started time.Time
}

func New(posts *repo.Posts, comments *repo.Comments, gate *auth.Gate, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		Posts:    posts,
		Comments: comments,
		Gate:     gate,
		Log:      logger,
		started:  time.Now(),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/verify", s.requireAuth(s.handleVerify))
	mux.HandleFunc("/api/posts", s.handlePosts)
	mux.HandleFunc("/api/posts/", s.handlePostSub)
	mux.HandleFunc("/api/comments/", s.handleCommentByID)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, http.StatusNotFound, "Route not found")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.cors(s.routes()).ServeHTTP(w, r)
}

// cors mirrors the permissive policy of the deployed service: the static
// page may be hosted anywhere.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		h.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
		"version":   "1.0.0",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, id, err := s.Gate.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			s.Log.WithField("username", req.Username).Info("login failed")
			s.fail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.error(w, err)
		return
	}
	s.Log.WithField("username", id.Username).Info("login successful")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    id,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if r.Method != http.MethodGet {
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": id})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListPosts(w, r)
	case http.MethodPost:
		s.requireAuth(s.handleCreatePost)(w, r)
	default:
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("limit"))
	previews, pagination, err := s.Posts.List(page, pageSize, q.Get("search"))
	if err != nil {
		s.error(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       previews,
		"pagination": pagination,
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	title, content, uploads, err := s.parsePostForm(r)
	if err != nil {
		s.error(w, err)
		return
	}
	created, err := s.Posts.Create(title, content, uploads, id.Username)
	if err != nil {
		s.error(w, err)
		return
	}
	s.Log.WithFields(logrus.Fields{
		"title":  title,
		"files":  len(uploads),
		"author": id.Username,
	}).Info("post created")
	s.ok(w, http.StatusCreated, created)
}

// handlePostSub dispatches /api/posts/{id}, /api/posts/{id}/comments and
// /api/posts/{id}/files/{index}.
func (s *Server) handlePostSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handlePostByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "comments":
		s.handlePostComments(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "files":
		s.handlePostFile(w, r, parts[0], parts[2])
	default:
		s.fail(w, http.StatusNotFound, "Route not found")
	}
}

func (s *Server) handlePostByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		detail, err := s.Posts.Get(id)
		if err != nil {
			s.error(w, err)
			return
		}
		s.ok(w, http.StatusOK, detail)
	case http.MethodPut:
		s.requireAuth(func(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
			title, content, uploads, err := s.parsePostForm(r)
			if err != nil {
				s.error(w, err)
				return
			}
			updated, err := s.Posts.Update(id, title, content, uploads)
			if err != nil {
				s.error(w, err)
				return
			}
			s.Log.WithField("title", updated.Title).Info("post updated")
			s.ok(w, http.StatusOK, updated)
		})(w, r)
	case http.MethodDelete:
		s.requireAuth(func(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
			if err := s.Posts.Delete(id); err != nil {
				s.error(w, err)
				return
			}
			s.Log.WithField("id", id).Info("post deleted")
			s.writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Post deleted successfully",
			})
		})(w, r)
	default:
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePostFile(w http.ResponseWriter, r *http.Request, postID, indexStr string) {
	if r.Method != http.MethodGet {
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		s.fail(w, http.StatusNotFound, "File not found")
		return
	}
	view, err := s.Posts.GetFile(postID, index)
	if err != nil {
		s.error(w, err)
		return
	}
	s.ok(w, http.StatusOK, view)
}

func (s *Server) handlePostComments(w http.ResponseWriter, r *http.Request, postID string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := s.Comments.ListForPost(postID)
		if err != nil {
			s.error(w, err)
			return
		}
		s.ok(w, http.StatusOK, comments)
	case http.MethodPost:
		var req struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		comment, err := s.Comments.Create(postID, req.Name, req.Email, req.Message)
		if err != nil {
			s.error(w, err)
			return
		}
		s.Log.WithFields(logrus.Fields{"name": req.Name, "postId": postID}).Info("comment added")
		s.ok(w, http.StatusCreated, comment)
	default:
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCommentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if id == "" || strings.Contains(id, "/") {
		s.fail(w, http.StatusNotFound, "Route not found")
		return
	}
	s.requireAuth(func(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
		if err := s.Comments.Delete(id); err != nil {
			s.error(w, err)
			return
		}
		s.Log.WithField("id", id).Info("comment deleted")
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Comment deleted successfully",
		})
	})(w, r)
}

// parsePostForm accepts either a multipart form carrying title, content and
// up to ten files, or a bare JSON body with title and content.
func (s *Server) parsePostForm(r *http.Request) (title, content string, uploads []models.Upload, err error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			return "", "", nil, models.Validationf("invalid request body")
		}
		return req.Title, req.Content, nil, nil
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", nil, models.Validationf("File upload error: %v", err)
	}
	title = r.FormValue("title")
	content = r.FormValue("content")
	headers := r.MultipartForm.File["files"]
	if len(headers) > maxUploadFiles {
		return "", "", nil, models.Validationf("Too many files: maximum is %d", maxUploadFiles)
	}
	for _, fh := range headers {
		mimetype := fh.Header.Get("Content-Type")
		if !allowedFileTypes.MatchString(strings.ToLower(fh.Filename)) ||
			!allowedFileTypes.MatchString(strings.ToLower(mimetype)) {
			return "", "", nil, models.Validationf(
				"File upload error: Invalid file type. Allowed: jpg, png, gif, pdf, doc, docx, txt, zip, mp4, webm")
		}
		f, err := fh.Open()
		if err != nil {
			return "", "", nil, models.Validationf("File upload error: %v", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return "", "", nil, models.Validationf("File upload error: %v", err)
		}
		uploads = append(uploads, models.Upload{
			Originalname: fh.Filename,
			Mimetype:     mimetype,
			Data:         data,
		})
	}
	return title, content, uploads, nil
}

// middleware
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.fail(w, http.StatusUnauthorized, "No token provided")
			return
		}
		id, err := s.Gate.Authenticate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.fail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r, id)
	}
}

// response helpers
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.WithError(err).Error("write response")
	}
}

func (s *Server) ok(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// error maps repository errors onto the response envelope.
func (s *Server) error(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	var pe *store.PersistenceError
	switch {
	case errors.As(err, &ve):
		s.fail(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, models.ErrNotFound):
		s.fail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrInvalidCredentials):
		s.fail(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.As(err, &pe):
		s.Log.WithError(err).Error("persistence failure")
		s.fail(w, http.StatusInternalServerError, "Failed to save data")
	default:
		s.Log.WithError(err).Error("internal error")
		s.fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
