// file: internal/server/auth_handlers.go
// version: 2.1.0
// guid: e2614283-2941-46cb-898d-684b02234b4c

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/access"
	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/server/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) sessionResponse(c *gin.Context, status int, session models.Session) {
	ttl := s.auth.TTL()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, session.Token, int(ttl.Seconds()), "/", "", s.cfg.SecureCookies, true)
	RespondWithSuccess(c, status, SessionResponse{
		Token:     session.Token,
		User:      session.User,
		ExpiresIn: int64(ttl.Seconds()),
	})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	session, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	s.sessionResponse(c, http.StatusOK, session)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	session, err := s.auth.Register(c.Request.Context(), catalog.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	s.sessionResponse(c, http.StatusCreated, session)
}

func (s *Server) logout(c *gin.Context) {
	// anonymous callers only lose their cookie
	if err := s.auth.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", s.cfg.SecureCookies, true)
	RespondWithOK(c, MessageResponse{Message: "logged out"})
}

func (s *Server) me(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	RespondWithOK(c, user)
}

func (s *Server) listBookmarks(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	books := make([]models.Book, 0, len(user.Bookmarks))
	for _, id := range user.Bookmarks {
		if b, err := s.catalog.Books.Find(id); err == nil {
			books = append(books, access.Redact(user, b))
		}
	}
	RespondWithList(c, books)
}

func (s *Server) toggleBookmark(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	bookID := c.Param("bookId")
	if _, err := s.catalog.Books.Find(bookID); err != nil {
		RespondWithDomainError(c, err)
		return
	}

	updated, bookmarked, err := s.catalog.Users.ToggleBookmark(c.Request.Context(), user.ID, bookID)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	if err := s.auth.Refresh(c.Request.Context(), updated); err != nil {
		RespondWithDomainError(c, err)
		return
	}
	RespondWithOK(c, BookmarkResponse{BookID: bookID, Bookmarked: bookmarked, Bookmarks: updated.Bookmarks})
}

// requireUser is for handlers mounted behind RequireAuth.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithDomainError(c, apperrors.ErrUnauthenticated)
	}
	return user, ok
}
