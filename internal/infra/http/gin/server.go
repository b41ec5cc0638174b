package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"orbit/internal/infra/config"
	"orbit/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Users          UserHTTP
	Messages       MessageHTTP
	Posts          PostHTTP
	Stories        StoryHTTP
	Uploads        UploadHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/sync", h.Auth.Sync)
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Users != nil {
		users := api.Group("/users")
		users.GET("/search", h.Users.Search)
		users.GET("/:id", h.Users.Profile)
		users.PUT("/me", h.Users.UpdateProfile)
		users.POST("/:id/follow", h.Users.Follow)
		users.DELETE("/:id/follow", h.Users.Unfollow)
		users.POST("/:id/connect", h.Users.Connect)
		users.DELETE("/:id/connect", h.Users.Disconnect)
		users.GET("/:id/followers", h.Users.Edges)
		users.GET("/:id/following", h.Users.Edges)
		users.GET("/:id/connections", h.Users.Edges)
	}
	if h.Messages != nil {
		messages := api.Group("/messages")
		messages.POST("", h.Messages.Send)
		messages.GET("", h.Messages.Conversations)
		messages.GET("/:userId", h.Messages.Thread)
		messages.POST("/:userId/seen", h.Messages.MarkSeen)
	}
	if h.Posts != nil {
		posts := api.Group("/posts")
		posts.POST("", h.Posts.Create)
		posts.GET("", h.Posts.Feed)
		posts.POST("/:id/like", h.Posts.ToggleLike)
		posts.DELETE("/:id", h.Posts.Delete)
		api.GET("/users/:id/posts", h.Posts.ByUser)
	}
	if h.Stories != nil {
		stories := api.Group("/stories")
		stories.POST("", h.Stories.Create)
		stories.GET("", h.Stories.Feed)
		stories.DELETE("/:id", h.Stories.Delete)
		api.GET("/users/:id/stories", h.Stories.ByUser)
	}
	if h.Uploads != nil {
		api.POST("/uploads", h.Uploads.Upload)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
