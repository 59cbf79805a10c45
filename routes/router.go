package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/controllers"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

// Deps is everything the handlers need; it replaces process-wide handles.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	Logger *zap.Logger
	Auth   *services.AuthService
	// Cache is optional; nil disables response caching.
	Cache *utils.PostCache
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file; fall back to the app logger.
	accessLogger := d.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			d.Logger.Warn("access log unavailable, using application logger", zap.Error(err))
		} else {
			accessLogger = gl
		}
	}
	r.Use(ginzap.GinzapWithConfig(accessLogger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", c.Writer.Header().Get(utils.RequestIDHeader))}
		},
	}))
	r.Use(utils.RecoveryWithZap(d.Logger, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	metrics := middleware.NewMetrics()
	r.Use(metrics.Middleware())

	r.GET("/", func(ctx *gin.Context) {
		utils.Message(ctx, http.StatusOK, "Hello, World!")
	})
	r.GET("/health", func(ctx *gin.Context) {
		utils.Respond(ctx, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	authController := controllers.NewAuthController(d.Auth, d.Logger)
	postController := controllers.NewPostController(d.DB, d.Cache, d.Logger)
	statsController := controllers.NewStatsController(d.DB, d.Logger)
	authRequired := middleware.AuthRequired(d.Auth)

	v1 := r.Group("/v1")
	v1.POST("/register", authController.Register)
	v1.POST("/login", authController.Login)
	v1.GET("/posts", postController.ListPosts)
	v1.GET("/posts/:id", postController.GetPost)
	v1.GET("/posts/:id/stats", statsController.GetPostStats)
	v1.GET("/stats", statsController.GetStats)

	protected := v1.Group("")
	protected.Use(authRequired)
	protected.POST("/logout", authController.Logout)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "Not found!")
	})

	return r
}
