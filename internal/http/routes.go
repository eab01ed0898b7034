package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/confessly/internal/config"
	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/metrics"
	"github.com/sujalbistaa/confessly/internal/ws"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, svc *confession.Service, hub *ws.Hub, cfg *config.Config) {
	env := &Env{Svc: svc, Hub: hub, AdminPath: cfg.AdminPath}

	// --- Global middleware ---
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// --- Rate limiters ---
	postLimiter := NewClientLimiter(cfg.PostLimit, cfg.PostWindow)
	voteLimiter := NewClientLimiter(cfg.VoteLimit, cfg.VoteWindow)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			postLimiter.Prune()
			voteLimiter.Prune()
		}
	}()

	// --- Public routes ---
	router.GET("/", env.Home)
	router.GET("/confessions", env.ListConfessions)
	router.GET("/confession/:id", env.GetConfession)
	router.POST("/confess", RateLimit(postLimiter), env.CreateConfession)
	router.POST("/confess/vote/:id/:vote", RateLimit(voteLimiter), env.Vote)

	// --- Admin routes ---
	admin := router.Group("/"+cfg.AdminPath, AdminAuthMiddleware(cfg.AdminUser, cfg.AdminPassword))
	admin.GET("", env.AdminList)
	admin.GET("/edit/:id", env.AdminEditForm)
	admin.POST("/update", env.AdminUpdate)
	admin.POST("/delete/:id", env.AdminDelete)

	// --- Live feed and operations ---
	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, c.Writer, c.Request)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Static assets. Must come after the API routes.
	router.Static("/static", "./web/static")
}
