package server

import (
	"context"
	"net/http"
	"time"

	"github.com/billgate/purchasegw/internal/config"
	"github.com/billgate/purchasegw/internal/retry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RetryRunner triggers one retry batch on demand.
type RetryRunner interface {
	RunOnce(ctx context.Context) error
}

// Server exposes the operational surface: health, metrics, and a manual
// trigger for the retry coordinator.
type Server struct {
	engine      *gin.Engine
	log         *zap.Logger
	coordinator RetryRunner
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Coordinator RetryRunner
}

func New(p Params) *Server {
	s := &Server{
		engine:      NewEngine(),
		log:         p.Log.Named("server"),
		coordinator: p.Coordinator,
	}
	s.routes()
	return s
}

func NewEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/ops/retry-run", s.triggerRetryRun)
}

// triggerRetryRun runs one retry batch on demand, outside the schedule.
func (s *Server) triggerRetryRun(c *gin.Context) {
	if err := s.coordinator.RunOnce(c.Request.Context()); err != nil {
		s.log.Error("manual retry run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(
		func(c *retry.Coordinator) RetryRunner { return c },
		New,
	),
	fx.Invoke(run),
)
