// file: internal/server/server.go
// version: 2.1.0
// guid: 3e6c58c4-6d15-4daa-8a4d-2c9a79e41615

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/auth"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/jdfalk/cliqbook/internal/realtime"
	"github.com/jdfalk/cliqbook/internal/search"
	"github.com/jdfalk/cliqbook/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // zero: SSE streams outlive any write deadline
	IdleTimeout  time.Duration
	// MaxConnections caps concurrent connections, SSE streams included. Zero is unlimited.
	MaxConnections int

	LoginRatePerMinute int
	MaxJSONBytes       int64
	MaxUploadBytes     int64
	MetricsUsername    string
	MetricsPassword    string
	SecureCookies      bool
	HeartbeatInterval  time.Duration
	ShutdownTimeout    time.Duration
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:               "localhost:8080",
		ReadTimeout:        15 * time.Second,
		IdleTimeout:        60 * time.Second,
		LoginRatePerMinute: 10,
		MaxJSONBytes:       1 << 20,
		MaxUploadBytes:     (catalog.DefaultMaxBookFileBytes + catalog.DefaultMaxCoverBytes) * 2,
		HeartbeatInterval:  5 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Deps are the services the server exposes.
type Deps struct {
	Catalog *catalog.Catalog
	Auth    *auth.Service
	Hub     *realtime.EventHub
	Index   *search.Index
	Log     zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg        ServerConfig
	catalog    *catalog.Catalog
	auth       *auth.Service
	hub        *realtime.EventHub
	index      *search.Index
	log        zerolog.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(deps Deps, cfg ServerConfig) *Server {
	if deps.Hub == nil {
		deps.Hub = realtime.NewEventHub(deps.Log)
	}
	if deps.Index == nil {
		deps.Index = search.NewIndex()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	metrics.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(corsMiddleware())
	router.Use(middleware.LimitBody(middleware.BodyLimits{
		JSON:         cfg.MaxJSONBytes,
		Upload:       cfg.MaxUploadBytes,
		UploadRoutes: middleware.BookUploadRoutes,
	}))

	s := &Server{
		cfg:     cfg,
		catalog: deps.Catalog,
		auth:    deps.Auth,
		hub:     deps.Hub,
		index:   deps.Index,
		log:     deps.Log.With().Str("service", "server").Logger(),
		router:  router,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.httpServer = &http.Server{
		Handler:        s.router,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
		BaseContext:    func(net.Listener) context.Context { return s.log.WithContext(context.Background()) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go s.heartbeat(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	s.hub.Broadcast(&realtime.Event{
		Type: "system.shutdown",
		Data: map[string]any{"message": "Server is shutting down"},
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("server exited")
	return nil
}

// heartbeat pushes periodic system.status events and refreshes gauges.
func (s *Server) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			books := s.catalog.Books.Count()
			users := s.catalog.Users.Count()
			metrics.SetBooks(books)
			metrics.SetUsers(users)
			s.hub.SendSystemStatus(map[string]any{
				"books":        books,
				"users":        users,
				"sse_clients":  s.hub.GetClientCount(),
				"memory_alloc": mem.Alloc,
				"goroutines":   runtime.NumGoroutine(),
				"timestamp":    time.Now().Unix(),
			})
		case <-ctx.Done():
			return
		}
	}
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", middleware.BasicAuth(s.cfg.MetricsUsername, s.cfg.MetricsPassword), gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	api.Use(middleware.LoadUser(s.auth))
	{
		api.GET("/health", s.healthCheck)
		api.GET("/events", s.hub.HandleSSE)

		// Auth routes
		// burst covers a second's worth of attempts, and never fewer than three
		burst := max(3, s.cfg.LoginRatePerMinute/60)
		credentials := middleware.NewCredentialLimiter(s.cfg.LoginRatePerMinute, burst).Middleware()
		authGroup := api.Group("/auth")
		authGroup.POST("/login", credentials, s.login)
		authGroup.POST("/register", credentials, s.register)
		authGroup.POST("/logout", s.logout)
		authGroup.GET("/me", middleware.RequireAuth(), s.me)

		// Storefront routes
		api.GET("/books", s.listBooks)
		api.GET("/books/trending", s.trendingBooks)
		api.GET("/books/featured", s.featuredBooks)
		api.GET("/books/search", s.searchBooks)
		api.GET("/books/suggest", s.suggestBooks)
		api.GET("/books/:id", s.getBook)
		api.GET("/categories", s.listCategories)
		api.GET("/categories/:id", s.getCategory)
		api.GET("/reader/:id", s.readBook)

		me := api.Group("/me", middleware.RequireAuth())
		me.GET("/bookmarks", s.listBookmarks)
		me.POST("/bookmarks/:bookId", s.toggleBookmark)

		// Admin routes
		admin := api.Group("/admin", middleware.RequireAdmin())
		admin.GET("/dashboard", s.getDashboard)
		admin.GET("/membership", s.getMembership)
		admin.GET("/activities", s.listActivities)
		admin.GET("/settings", s.getSettings)
		admin.PUT("/settings", s.updateSettings)

		admin.GET("/books", s.adminListBooks)
		admin.POST("/books", s.createBook)
		admin.GET("/books/:id", s.adminGetBook)
		admin.PUT("/books/:id", s.updateBook)
		admin.DELETE("/books/:id", s.deleteBook)

		admin.GET("/users", s.adminListUsers)
		admin.POST("/users", s.createUser)
		admin.GET("/users/:id", s.getUser)
		admin.PUT("/users/:id", s.updateUser)
		admin.DELETE("/users/:id", s.deleteUser)

		admin.GET("/export/:file", s.exportCollection)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
		Version:   Version,
		Metrics: map[string]int{
			"books":       s.catalog.Books.Count(),
			"users":       s.catalog.Users.Count(),
			"categories":  len(s.catalog.Categories.List()),
			"sse_clients": s.hub.GetClientCount(),
		},
	})
}
