// Package health serves a liveness endpoint for process supervisors.
package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tsukumogami/dumpbot/internal/log"
)

// ShutdownTimeout bounds how long Serve waits for open requests on exit.
const ShutdownTimeout = 5 * time.Second

// Status is the /healthz response body.
type Status struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

// Server reports the bot as alive while the process runs.
type Server struct {
	version string
	started time.Time
	now     func() time.Time
	logger  log.Logger
	engine  *gin.Engine
}

// NewServer builds the gin engine. debug enables gin's debug mode.
func NewServer(version string, logger log.Logger, debug bool) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		version: version,
		started: time.Now(),
		now:     time.Now,
		logger:  logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))
	engine.GET("/healthz", s.handleHealth)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Status{
		Status:    "ok",
		Version:   s.version,
		StartedAt: s.started.UTC(),
		Uptime:    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("health server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("health endpoint listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loggingMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
