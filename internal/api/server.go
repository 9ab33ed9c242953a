// Package api serves the dashboard JSON API.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	syncpkg "github.com/zulandar/traindash/internal/sync"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB     *gorm.DB
	Runner *syncpkg.Runner
	Port   int
	Out    io.Writer
}

// Server carries the handlers' shared state.
type Server struct {
	db     *gorm.DB
	runner *syncpkg.Runner

	// Guards against overlapping manually-triggered syncs in this
	// process; the advisory lock covers other processes.
	syncRunning atomic.Bool
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8000
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{db: opts.DB, runner: opts.Runner}
	s.registerRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
