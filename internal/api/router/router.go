package router

import (
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/pulse/config"
	_ "github.com/d60-Lab/pulse/docs"
	"github.com/d60-Lab/pulse/internal/api/handler"
	"github.com/d60-Lab/pulse/internal/api/middleware"
	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/pkg/logger"
)

const serviceName = "pulse"

// New assembles the gin engine: middleware chain, public routes and the
// authenticated group.
func New(cfg *config.Config, h *handler.Handler, provider identity.Provider, rdb *redis.Client) *gin.Engine {
	gin.SetMode(ginMode(cfg.Server.Mode))
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.Default())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.RateLimit(cfg.RateLimit, rdb))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/users/profile/:username", h.Profile)
		v1.GET("/users/:user_id/following", h.Following)
		v1.GET("/users/:user_id/followers", h.Followers)
		v1.GET("/posts", h.ListPosts)
		v1.GET("/posts/user/:username", h.ListUserPosts)
		v1.GET("/posts/:post_id", h.GetPost)
		v1.GET("/comments/post/:post_id", h.ListComments)
	}

	auth := v1.Group("")
	auth.Use(middleware.Auth(provider))
	auth.Use(middleware.Idempotency(rdb))
	{
		auth.POST("/users/sync", h.Sync)
		auth.GET("/users/me", h.Me)
		auth.PUT("/users/profile", h.UpdateProfile)
		auth.POST("/users/follow/:user_id", h.ToggleFollow)
		auth.POST("/posts", h.CreatePost)
		auth.POST("/posts/:post_id/like", h.ToggleLike)
		auth.DELETE("/posts/:post_id", h.DeletePost)
		auth.POST("/comments/post/:post_id", h.CreateComment)
		auth.DELETE("/comments/:comment_id", h.DeleteComment)
		auth.GET("/notifications", h.ListNotifications)
		auth.DELETE("/notifications/:notification_id", h.DeleteNotification)
	}

	return r
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

// registerValidations adds the notblank rule used by request bindings.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
