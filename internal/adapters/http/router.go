package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/classroom/internal/adapters/signal"
	"github.com/dkeye/classroom/internal/app/orch"
	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, v auth.Verifier) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	ctrl := signal.NewSignalWSController(o, v, cfg)
	ws := func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	}
	h := &handlers{orch: o}

	r.GET("/health", h.health)
	r.GET("/ws", ws)

	api := r.Group("/api")
	api.GET("/ws", ws)

	admin := api.Group("", RequirePrivileged(v, cfg.VerifyTimeout))
	admin.GET("/stats", h.stats)
	admin.GET("/rooms", h.rooms)
	admin.GET("/rooms/:classId/:sectionId/participants", h.participants)
	admin.POST("/rooms/:classId/:sectionId/events", h.pushEvent)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
