// file: internal/server/book_handlers.go
// version: 1.1.0
// guid: dfffde1e-4bf7-46e5-b67a-4008f3319b8c

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/access"
	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/filter"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/search"
	"github.com/jdfalk/cliqbook/internal/server/middleware"
)

const maxListLimit = 100

// listBooks serves the storefront listing: filtered, then paginated with the
// admin's booksPerPage setting unless perPage is given.
func (s *Server) listBooks(c *gin.Context) {
	state := models.DefaultFilter()
	if err := c.ShouldBindQuery(&state); err != nil {
		RespondWithDomainError(c, apperrors.Invalid("rating", "must be a number"))
		return
	}
	if state.Rating < 0 {
		RespondWithDomainError(c, apperrors.Invalid("rating", "must not be negative"))
		return
	}
	if state.AccessLevel != "" && state.AccessLevel != models.FilterAll && !models.IsValidAccessLevel(state.AccessLevel) {
		RespondWithDomainError(c, apperrors.Invalid("access", "unknown access level"))
		return
	}

	books := access.RedactAll(viewer(c), s.catalog.Books.Filter(s.catalog.Categories.List(), state))
	perPage := ParseQueryInt(c, "perPage", s.catalog.Settings.Get().BooksPerPage)
	if perPage < 1 || perPage > maxListLimit {
		perPage = s.catalog.Settings.Get().BooksPerPage
	}
	RespondWithOK(c, filter.Paginate(books, ParseQueryInt(c, "page", 1), perPage))
}

func (s *Server) trendingBooks(c *gin.Context) {
	books := s.catalog.Books.Trending(ParseLimit(c, filter.DefaultTrendingLimit, maxListLimit))
	RespondWithList(c, access.RedactAll(viewer(c), books))
}

func (s *Server) featuredBooks(c *gin.Context) {
	books := s.catalog.Books.Featured(ParseLimit(c, filter.DefaultFeaturedLimit, maxListLimit))
	RespondWithList(c, access.RedactAll(viewer(c), books))
}

// searchBooks ranks books by relevance. The index is rebuilt lazily when the
// book collection has changed since the last search.
func (s *Server) searchBooks(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		RespondWithDomainError(c, apperrors.Invalid("q", "search text is required"))
		return
	}
	if err := s.index.Refresh(s.catalog.Books.Version(), s.catalog.Books.List()); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	hits, err := s.index.Search(q, ParseLimit(c, search.DefaultLimit, maxListLimit))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}

	user := viewer(c)
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		// Hits for books deleted since the refresh are skipped.
		b, err := s.catalog.Books.Find(h.ID)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Book: access.Redact(user, b), Score: h.Score})
	}
	RespondWithList(c, results)
}

func (s *Server) suggestBooks(c *gin.Context) {
	RespondWithList(c, s.catalog.Books.Suggest(c.Query("q"), ParseLimit(c, 5, 20)))
}

func (s *Server) getBook(c *gin.Context) {
	book, err := s.catalog.Books.Find(c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, access.Redact(viewer(c), book))
}

func (s *Server) listCategories(c *gin.Context) {
	RespondWithList(c, s.catalog.Categories.List())
}

// getCategory returns a category page: the category and the books filed under its name.
func (s *Server) getCategory(c *gin.Context) {
	cat, err := s.catalog.Categories.Find(c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, CategoryResponse{
		Category: cat,
		Books:    access.RedactAll(viewer(c), s.catalog.Books.ByCategory(cat.Name, ParseQueryInt(c, "limit", 0))),
	})
}

// readBook serves the reader. Premium books are only returned to premium
// members; everyone else gets 403 with the preview allowance and the book's
// file stripped.
func (s *Server) readBook(c *gin.Context) {
	book, err := s.catalog.Books.Find(c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	user := viewer(c)
	decision := access.Decide(user, book)
	if !decision.Allowed {
		book = access.Redact(user, book)
		logErrorWithContext(c, http.StatusForbidden, decision.Reason)
		c.JSON(http.StatusForbidden, gin.H{
			"error":  decision.Reason,
			"code":   "FORBIDDEN",
			"status": http.StatusForbidden,
			"data":   ReaderResponse{Book: book, Access: decision},
		})
		return
	}
	RespondWithOK(c, ReaderResponse{Book: book, Access: decision})
}

// viewer is the signed-in user, or nil for anonymous storefront requests.
// Book files only leave the storefront through access.Redact.
func viewer(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}
