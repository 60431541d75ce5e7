// file: internal/server/admin_handlers.go
// version: 1.1.0
// guid: ed30aad7-e9fa-41b2-a719-b9780b4a7fe8

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/export"
	"github.com/jdfalk/cliqbook/internal/models"
)

func (s *Server) getDashboard(c *gin.Context) {
	RespondWithOK(c, s.catalog.Dashboard.Stats())
}

func (s *Server) getMembership(c *gin.Context) {
	RespondWithOK(c, s.catalog.Dashboard.Membership())
}

func (s *Server) listActivities(c *gin.Context) {
	RespondWithList(c, s.catalog.Activity.List())
}

func (s *Server) getSettings(c *gin.Context) {
	RespondWithOK(c, s.catalog.Settings.Get())
}

func (s *Server) updateSettings(c *gin.Context) {
	var in models.Settings
	if HandleBindError(c, c.ShouldBindJSON(&in)) {
		return
	}
	out, err := s.catalog.Settings.Update(c.Request.Context(), in)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, out)
}

// Books

func (s *Server) adminListBooks(c *gin.Context) {
	RespondWithList(c, s.catalog.Books.AdminSearch(c.Query("search")))
}

// adminGetBook returns the stored record, file included, whatever the
// admin's own membership.
func (s *Server) adminGetBook(c *gin.Context) {
	book, err := s.catalog.Books.Find(c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, book)
}

func (s *Server) createBook(c *gin.Context) {
	patch, files, err := s.bindBookForm(c)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	book, err := s.catalog.Books.Create(c.Request.Context(), patch.Apply(models.Book{}), files)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithCreated(c, book)
}

func (s *Server) updateBook(c *gin.Context) {
	patch, files, err := s.bindBookForm(c)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	book, err := s.catalog.Books.Update(c.Request.Context(), c.Param("id"), patch, files)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, book)
}

func (s *Server) deleteBook(c *gin.Context) {
	id := c.Param("id")
	if err := s.catalog.Books.Delete(c.Request.Context(), id); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, DeleteResponse{Deleted: true, ID: id})
}

// bindBookForm reads a book patch from a JSON body or from the admin
// multipart form, whose optional coverFile and bookFile parts are uploads.
func (s *Server) bindBookForm(c *gin.Context) (models.BookPatch, catalog.Uploads, error) {
	var patch models.BookPatch
	var files catalog.Uploads
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&patch); err != nil {
			return patch, files, apperrors.Invalid("request body", err.Error())
		}
		return patch, files, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return patch, files, apperrors.Invalid("request body", err.Error())
	}
	if err := bookPatchFromForm(form.Value, &patch); err != nil {
		return patch, files, err
	}

	limits := s.catalog.Books.Limits()
	if files.Cover, err = readUpload(form, "coverFile", limits.Cover); err != nil {
		return patch, files, err
	}
	if files.BookFile, err = readUpload(form, "bookFile", limits.BookFile); err != nil {
		return patch, files, err
	}
	return patch, files, nil
}

// bookPatchFromForm maps form fields onto patch. Absent fields stay nil;
// tags and keyLessons are comma separated.
func bookPatchFromForm(values map[string][]string, patch *models.BookPatch) error {
	str := func(key string) *string {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return nil
		}
		s := strings.TrimSpace(v[0])
		return &s
	}
	list := func(key string) *[]string {
		raw := str(key)
		if raw == nil {
			return nil
		}
		out := []string{}
		for _, part := range strings.Split(*raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return &out
	}

	patch.Title = str("title")
	patch.Author = str("author")
	patch.Category = str("category")
	patch.Description = str("description")
	patch.AccessLevel = str("accessLevel")
	patch.PublishDate = str("publishDate")
	patch.Summary = str("summary")
	patch.Tags = list("tags")
	patch.KeyLessons = list("keyLessons")

	if raw := str("price"); raw != nil && *raw != "" {
		price, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return apperrors.Invalid("price", "must be a number")
		}
		patch.Price = &price
	}
	if raw := str("previewPages"); raw != nil && *raw != "" {
		pages, err := strconv.Atoi(*raw)
		if err != nil {
			return apperrors.Invalid("previewPages", "must be a whole number")
		}
		patch.PreviewPages = &pages
	}
	return nil
}

// readUpload returns the named file part, or nil when it was not sent. It
// reads at most one byte past limit so oversized files fail validation
// without being buffered whole.
func readUpload(form *multipart.Form, field string, limit int64) ([]byte, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return data, nil
}

// Users

type userUpdateRequest struct {
	models.UserPatch
	Password *string `json:"password,omitempty"`
}

func (s *Server) adminListUsers(c *gin.Context) {
	RespondWithList(c, s.catalog.Users.Search(c.Query("search")))
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.catalog.Users.Find(c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, user)
}

func (s *Server) createUser(c *gin.Context) {
	var in catalog.NewUser
	if HandleBindError(c, c.ShouldBindJSON(&in)) {
		return
	}
	user, err := s.catalog.Users.Create(c.Request.Context(), in)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithCreated(c, user)
}

func (s *Server) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()

	var (
		user models.User
		err  error
	)
	if req.Password != nil {
		user, err = s.catalog.Users.UpdateWithPassword(ctx, id, req.UserPatch, *req.Password)
	} else {
		user, err = s.catalog.Users.Update(ctx, id, req.UserPatch)
	}
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	if err := s.auth.Refresh(ctx, user); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := s.catalog.Users.Delete(c.Request.Context(), id); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, DeleteResponse{Deleted: true, ID: id})
}

// Export

// exportCollection serves books.csv, users.csv, books.ndjson or users.ndjson.
// An empty collection yields 204.
func (s *Server) exportCollection(c *gin.Context) {
	file := c.Param("file")
	name, format, _ := strings.Cut(file, ".")
	if format != export.FormatCSV && format != export.FormatNDJSON {
		RespondWithNotFound(c, "export", file)
		return
	}

	var buf bytes.Buffer
	var err error
	switch name {
	case "books":
		err = export.Books(&buf, format, s.catalog.Books.List())
	case "users":
		err = export.Users(&buf, format, s.catalog.Users.List())
	default:
		RespondWithNotFound(c, "export", file)
		return
	}
	switch {
	case errors.Is(err, export.ErrNoData):
		RespondWithNoContent(c)
	case err != nil:
		_ = c.Error(err)
		RespondWithInternalError(c, "export failed")
	default:
		c.Header("Content-Disposition", "attachment; filename="+file)
		c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
	}
}
