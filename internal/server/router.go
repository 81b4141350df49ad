// Package server は HTTP ルーターの組み立てを行います。
package server

import (
	"crypto/rand"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/config"
	"github.com/yourusername/recipe-box/internal/recipes"
	"github.com/yourusername/recipe-box/internal/storage"
)

// Dependencies はルーターが必要とするコンポーネントです。
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Auth    *auth.Manager
	Recipes recipes.RecipeService
}

// NewRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	// セッションストアの設定（クッキーにはトークンのみを保存する）
	store := cookie.NewStore(sessionSecret(cfg, deps.Logger))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   deps.Auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))
	router.Use(deps.Auth.LoadSession())

	setupRoutes(router, deps)
	return router
}

// setupRoutes は認証系とレシピ系のルートを登録します。
func setupRoutes(router *gin.Engine, deps Dependencies) {
	m := deps.Auth

	router.GET("/health", handleHealth(deps.DB))

	// signup / login はセッション未生成なので CSRF 検証は不要
	router.POST("/signup", m.Signup)
	router.POST("/login", m.Login)
	router.DELETE("/logout", m.VerifyCSRF(), m.Logout)
	router.GET("/check_session", m.CheckSession)

	recipeRoutes := router.Group("/recipes")
	recipeRoutes.Use(m.VerifyCSRF())
	{
		recipeRoutes.GET("", m.RequireLogin(), recipes.ListHandler(deps.Recipes))
		recipeRoutes.POST("", m.RequireLogin(), recipes.CreateHandler(deps.Recipes))

		byID := recipeRoutes.Group("/:id")
		if deps.Config.RecipeByIDRequireLogin {
			byID.Use(m.RequireLogin())
		}
		byID.GET("", recipes.GetHandler(deps.Recipes))
		byID.PUT("", recipes.UpdateHandler(deps.Recipes))
		byID.DELETE("", recipes.DeleteHandler(deps.Recipes))
	}
}

// handleHealth はデータベースの疎通を含むヘルスチェックです。
func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := storage.Ping(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": "recipe-box-api",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "recipe-box-api",
		})
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token",
		RequestIDHeader,
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token", RequestIDHeader}
	return corsConfig
}

// sessionSecret はクッキー署名鍵を返します。
// 未設定の場合（release 以外）は起動ごとにランダムな鍵を使うため、再起動でセッションは失効します。
func sessionSecret(cfg *config.Config, log *slog.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	log.Warn("SESSION_SECRET is not set; using an ephemeral signing key")
	return []byte(rand.Text())
}
