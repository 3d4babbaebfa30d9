// Package server is the HTTP surface: it translates an inbound POST
// /v1/chat/completions into one calculator invocation and writes that
// invocation's output back to the client, either as one JSON envelope or
// as a sequence of SSE frames. It is a thin caller of the core; none of
// the state-machine logic lives here.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/vajain-rhods/openvino-model-server/resources"
)

// Server owns the gin router and the resource registry every calculator
// binds to at Open.
type Server struct {
	registry *resources.Map
	nodeName string
}

// New constructs a Server. nodeName is the single node-instance name this
// deployment answers requests for; every request resolves its resource
// bundle by this name.
func New(registry *resources.Map, nodeName string) *Server {
	return &Server{registry: registry, nodeName: nodeName}
}

// Routes builds the gin handler: CORS, then the one chat-completions
// route this spec names.
func (s *Server) Routes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type", "Accept"}
	corsConfig.AllowAllOrigins = true

	r := gin.New()
	r.Use(gin.Recovery(), cors.New(corsConfig))

	r.POST("/v1/chat/completions", s.ChatCompletionsHandler)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	return r
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully. Grounded in the teacher's signal-driven shutdown in
// server/routes.go, reshaped around golang.org/x/sync/errgroup instead of
// a bare goroutine + channel.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler}
	slog.Info("listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}
