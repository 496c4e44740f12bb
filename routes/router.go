package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/controllers"
	"github.com/inkwell/sketchblog/middleware"
	"github.com/inkwell/sketchblog/services"
	"github.com/inkwell/sketchblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers. The caller owns the
// ViewCounter so the same instance (and dedup window) can also drive the
// background sweep.
func SetupRouter(db *gorm.DB, viewCounter *services.ViewCounter) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access logs go to their own rolling file instead of the console.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Record daily PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	commentTree := services.NewCommentTree(db)
	commentLimiter := services.NewCommentLimiter()

	postController := controllers.NewPostController(db, viewCounter)
	commentController := controllers.NewCommentController(db, commentTree, commentLimiter)
	adminController := controllers.NewAdminController(db)
	archiveController := controllers.NewArchiveController(db)

	api := r.Group("/api")

	// Public reads. OptionalAdmin lets a valid token reveal scheduled posts.
	public := api.Group("")
	public.Use(middleware.OptionalAdmin())
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/popular", postController.PopularPosts)
	public.GET("/posts/:id", postController.GetPost)
	public.GET("/posts/:id/related", postController.RelatedPosts)
	public.POST("/posts/:id/view", postController.RecordView)
	public.GET("/posts/:id/comments", commentController.ListComments)
	public.POST("/posts/:id/comments", commentController.CreateComment)
	public.GET("/tags", postController.ListTags)
	public.GET("/archive", archiveController.ListYears)
	public.GET("/archive/:year", archiveController.ListByYear)
	public.GET("/archive/:year/:month", archiveController.ListByMonth)

	// Login is the only credential-bearing route; shield it from brute force.
	login := api.Group("/admin")
	login.Use(middleware.RateLimitMiddleware())
	login.POST("/login", adminController.Login)

	protected := api.Group("")
	protected.Use(middleware.AdminRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/check-title", postController.CheckTitle)
	protected.DELETE("/comments/:commentId", commentController.DeleteComment)
	protected.POST("/admin/logout", adminController.Logout)
	protected.GET("/admin/stats", adminController.Stats)
	protected.GET("/admin/settings", adminController.GetSettings)
	protected.PUT("/admin/settings", adminController.UpdateSettings)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
