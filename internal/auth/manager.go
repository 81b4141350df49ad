// Package auth は認証・認可機能を提供します。
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/recipe-box/internal/apperr"
)

const (
	SessionCookieName = "rb_session"
	sessionKeyToken   = "session_token"
	sessionKeyCSRF    = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

// ContextUserIDKey は、ハンドラー間でログイン済みユーザーIDを共有するためのキーです。
const ContextUserIDKey = "auth.user_id"

const contextTokenKey = "auth.token"

// Options は Manager の動作設定です。
type Options struct {
	MaxAge         time.Duration // セッションクッキーの有効期間
	CSRFProtection bool          // ダブルサブミット方式の CSRF 検証を行うか
}

// Manager は認証系ハンドラーとミドルウェアをまとめた構造体です。
type Manager struct {
	svc  *Service
	opts Options
}

// NewManager は認証マネージャーを作成します。
func NewManager(svc *Service, opts Options) *Manager {
	return &Manager{
		svc:  svc,
		opts: opts,
	}
}

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (m *Manager) SessionMaxAgeSeconds() int {
	return int(m.opts.MaxAge.Seconds())
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrValidation.WithMessage("username and password are required"))
		return
	}

	user, token, err := m.svc.Signup(c.Request.Context(), SignupInput{
		Username: req.Username,
		Password: req.Password,
		ImageURL: req.ImageURL,
		Bio:      req.Bio,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := m.startSession(c, token); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrValidation.WithMessage("username and password are required"))
		return
	}

	user, token, err := m.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := m.startSession(c, token); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout は DELETE /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	if err := m.svc.Logout(c.Request.Context(), tokenFrom(c)); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := m.clearSession(c); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckSession は GET /check_session のハンドラーです。
func (m *Manager) CheckSession(c *gin.Context) {
	user, err := m.svc.CurrentUser(c.Request.Context(), tokenFrom(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// startSession はトークンを署名付きクッキーに保存します。
func (m *Manager) startSession(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Set(sessionKeyToken, token)

	if m.opts.CSRFProtection {
		csrf, err := generateToken()
		if err != nil {
			return err
		}
		session.Set(sessionKeyCSRF, csrf)
		c.Header(csrfHeader, csrf)
	}

	return session.Save()
}

func (m *Manager) clearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
