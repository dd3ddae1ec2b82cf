package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/adapters/signal"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay, metricsHandler stdhttp.Handler) *gin.Engine {
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

	corsPolicy := newCORS(cfg.AllowedOrigins)
	r.Use(SecurityHeaders())
	r.Use(CORS(corsPolicy))
	r.Use(RateLimit(NewIPRateLimiter(cfg.HTTPRate.Requests, cfg.HTTPRate.Window)))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: stdhttp.SameSiteLaxMode})
	r.Use(sessions.Sessions("LobbySessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Strs("origins", cfg.AllowedOrigins).Msg("router setup")

	r.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"rooms": relay.Rooms()})
	})
	api.GET("/rooms/:name", func(c *gin.Context) {
		info, ok := relay.Room(domain.RoomName(c.Param("name")))
		if !ok {
			c.JSON(stdhttp.StatusNotFound, gin.H{"error": "Room not found."})
			return
		}
		c.JSON(stdhttp.StatusOK, info)
	})

	ctrl := signal.NewSignalWSController(relay, signal.OptionsFromConfig(cfg), func(req *stdhttp.Request) bool {
		// Non-browser clients send no Origin.
		if req.Header.Get("Origin") == "" {
			return true
		}
		return corsPolicy.OriginAllowed(req)
	})
	r.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
