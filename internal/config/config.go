// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// セッションバックエンドの種類
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret  string        // セッションクッキー署名用の秘密鍵
	SessionMaxAge  time.Duration // セッションの有効期間
	SessionBackend string        // memory または redis
	RedisURL       string        // SessionBackend=redis のときの接続URL
	CSRFProtection bool          // X-CSRF-Token による検証を行うか

	// データベース設定
	DatabaseDriver string // sqlite または postgres
	DatabaseURL    string // DSN

	// 認証設定
	BcryptCost int

	// ログ設定
	LogLevel  string
	LogFormat string // text または json

	// レシピのアクセス制御
	RecipeByIDRequireLogin bool // ID 指定の取得・更新・削除にログインを要求する
	RecipeEnforceOwnership bool // 更新・削除を作成者に限定する
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// セッション設定
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionMaxAge:  getEnvAsDuration("SESSION_MAX_AGE", 12*time.Hour),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
		RedisURL:       getEnv("REDIS_URL", ""),
		CSRFProtection: getEnvAsBool("CSRF_PROTECTION", false),

		// データベース設定
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "file:recipe-box.db?_pragma=foreign_keys(1)"),

		// 認証設定
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		// ログ設定
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		// レシピのアクセス制御
		RecipeByIDRequireLogin: getEnvAsBool("RECIPE_BY_ID_REQUIRE_LOGIN", false),
		RecipeEnforceOwnership: getEnvAsBool("RECIPE_ENFORCE_OWNERSHIP", false),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return errors.Errorf("unknown SESSION_BACKEND: %s", c.SessionBackend)
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unknown DATABASE_DRIVER: %s", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}

	if c.SessionMaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}

	if c.RecipeEnforceOwnership && !c.RecipeByIDRequireLogin {
		return errors.New("RECIPE_ENFORCE_OWNERSHIP requires RECIPE_BY_ID_REQUIRE_LOGIN")
	}

	// ローカル開発では署名鍵は任意、本番環境では必須
	if c.GinMode == "release" && c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required in release mode")
	}

	return nil
}

// AllowedOrigins は CORS_ALLOWED_ORIGINS を分割して返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します。"12h" 形式と秒数の両方を受け付けます。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
