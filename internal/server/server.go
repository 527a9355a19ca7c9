// Package server exposes embed resolution and provider management over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"embedrc/internal/filter"
	"embedrc/internal/provider"
	"embedrc/internal/registry"
)

// Resolver resolves embeds.
type Resolver interface {
	ResolveResult(ctx context.Context, text string) filter.Result
	FilterText(ctx context.Context, fragment string) string
}

// Catalog manages the provider list.
type Catalog interface {
	Load(ctx context.Context, force bool) error
	Providers(scope registry.Scope) []provider.Provider
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

// Deps are the services a Server routes to. They can be swapped at
// runtime with Replace.
type Deps struct {
	Resolver Resolver
	Catalog  Catalog
}

// Server is the HTTP API.
type Server struct {
	engine *gin.Engine
	log    zerolog.Logger

	mu   sync.RWMutex
	deps Deps
}

// New builds the router.
func New(deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		engine: gin.New(),
		log:    log,
		deps:   deps,
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Replace swaps the services used by subsequent requests.
func (s *Server) Replace(deps Deps) {
	s.mu.Lock()
	s.deps = deps
	s.mu.Unlock()
}

func (s *Server) current() Deps {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.POST("/resolve", s.resolve)
	s.engine.POST("/filter", s.filterText)

	providers := s.engine.Group("/providers")
	providers.GET("", s.listProviders)
	providers.PUT("/:id/enabled", s.setEnabled)
	providers.POST("/refresh", s.refresh)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
