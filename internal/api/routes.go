package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cueladder/backend/internal/api/handlers"
	"github.com/cueladder/backend/internal/challenge"
	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/match"
	"github.com/cueladder/backend/internal/metrics"
	"github.com/cueladder/backend/internal/middleware"
	"github.com/cueladder/backend/internal/operators"
	"github.com/cueladder/backend/internal/ws"
)

// Deps collects everything the HTTP surface talks to.
type Deps struct {
	DB        *sqlx.DB
	RDB       *redis.Client
	Config    *config.Config
	Ranks     *ladder.Store
	Lifecycle *challenge.Lifecycle
	Matches   *match.Manager
	Sweeper   *challenge.Sweeper
	Hub       *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d *Deps) {
	router.Use(middleware.CORSMiddleware(d.Config))

	// Prometheus metrics off the custom registry
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		// Public reads
		v1.GET("/health", handlers.HealthCheck(d.DB, d.RDB))
		v1.GET("/ladder", handlers.GetLadder(d.Ranks))

		// Member actions (JWT from the club's auth service)
		authed := v1.Group("")
		authed.Use(handlers.AuthMiddleware(d.Config))
		{
			authed.GET("/members/me", handlers.GetMe(d.Ranks))
			authed.GET("/eligibility/:id", handlers.CheckEligibility(d.Ranks))

			challenges := authed.Group("/challenges")
			{
				challenges.POST("", handlers.CreateChallenge(d.Lifecycle, d.RDB, d.Config))
				challenges.GET("", handlers.ListChallenges(d.Lifecycle))
				challenges.GET("/:id", handlers.GetChallenge(d.Lifecycle))
				challenges.POST("/:id/propose", handlers.ProposeChallenge(d.Lifecycle))
				challenges.POST("/:id/counter", handlers.CounterProposeChallenge(d.Lifecycle))
				challenges.POST("/:id/confirm", handlers.ConfirmChallenge(d.Lifecycle))
				challenges.POST("/:id/start", handlers.StartChallengeMatch(d.Lifecycle))
			}

			matches := authed.Group("/matches")
			{
				matches.POST("", handlers.CreateMatch(d.Matches))
				matches.GET("/:id", handlers.GetMatch(d.Matches))
				matches.POST("/:id/score", handlers.ScorePoint(d.Matches))
			}

			authed.GET("/ws", handlers.HandleLadderWebSocket(d.Hub))
		}

		// Operator surface (bcrypt token auth)
		admin := v1.Group("/admin")
		admin.Use(handlers.OperatorAuthMiddleware(d.DB, operators.RoleLadderAdmin))
		{
			admin.POST("/sweep", handlers.RunSweep(d.Sweeper))
			admin.POST("/members", handlers.OnboardMember(d.Ranks))
			admin.POST("/members/import", handlers.ImportMembers(d.Ranks))
			admin.GET("/activity", handlers.GetActivity(d.DB))
			admin.POST("/challenges/:id/forfeit", handlers.ForfeitChallenge(d.Lifecycle))
			admin.POST("/matches/:id/resolve", handlers.ResolveMatchAgain(d.Matches))
		}
	}
}
