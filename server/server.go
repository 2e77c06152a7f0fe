package server

import (
	// Go Internal Packages
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	// Local Packages
	config "kafka-relay/config"
	relay "kafka-relay/services/relay"

	// External Packages
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultLimit = relay.DefaultLimit

// Server is the relay's HTTP facade.
type Server struct {
	conf   config.HTTP
	engine *gin.Engine
	logger *zap.Logger
}

// New builds the router. metrics may be nil, in which case /metrics is not
// served.
func New(conf config.HTTP, r Relay, metrics http.Handler, logger *zap.Logger) *Server {
	engine := gin.New()
	engine.Use(requestLogger(logger), recovery(logger), cors.Default())

	h := &handlers{relay: r}
	register := func(group *gin.RouterGroup) {
		group.POST("/send", h.send)
		group.GET("/consume", h.consume)
	}

	prefix := conf.Prefix
	if prefix == "" {
		prefix = "/relay"
	}
	g := engine.Group(prefix)
	register(g)
	g.GET("/health", h.health)
	g.GET("/failed", h.failedSends)

	// Paths the chat front-end has always called.
	if conf.LegacyRoutes {
		register(engine.Group("/api/kafka"))
		engine.GET("/api/health", h.health)
	}

	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}

	return &Server{conf: conf, engine: engine, logger: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.conf.Port),
		Handler:      s.engine,
		ReadTimeout:  s.conf.ReadTimeout,
		WriteTimeout: s.conf.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen failure on %s: %w", srv.Addr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	timeout := s.conf.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown timed out, forcing close", zap.Error(err))
		_ = srv.Close()
	}
	return nil
}
