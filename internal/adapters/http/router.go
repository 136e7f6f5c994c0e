package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Chat/internal/adapters/auth"
	"github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/presence"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/observability/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Deps is the object graph behind the router.
type Deps struct {
	Presence *presence.Coordinator
	Registry *app.Registry
	Resolver *auth.Resolver
	Limiter  *signal.RateLimiter
}

// NewDeps wires one chat session: a roster, the connection registry and the
// fanout gateway between them.
func NewDeps(cfg *config.Config) Deps {
	reg := app.NewRegistry()
	var policy app.Policy = app.SimplePolicy{}
	if cfg.Backpressure == "drop" {
		policy = app.LenientPolicy{}
	}
	roster := core.NewRosterStore()
	metrics.TrackActiveUsers(roster.Len)
	return Deps{
		Presence: presence.NewCoordinator(roster, app.NewFanout(reg, policy)),
		Registry: reg,
		Resolver: auth.NewResolver(cfg.Secret, cfg.AuthScope, cfg.UsernameClaim),
		Limiter:  signal.NewRateLimiter(cfg.RateLimit, cfg.RateInterval),
	}
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware keeps a per-browser token in the session cookie; it
// only correlates logs and carries no authority.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get("ct").(string)
		if token == "" {
			token = genClientToken()
			session.Set("ct", token)
			session.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
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

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": deps.Registry.Count(),
			"users":       len(deps.Presence.ActiveUsers()),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(deps.Presence, deps.Registry, deps.Limiter, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})

	api := r.Group("/api", auth.Middleware(deps.Resolver))

	api.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": deps.Presence.ActiveUsers()})
	})

	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString(signal.ClientTokenKey)).Msg("ws chat endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
