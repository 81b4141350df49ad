package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/yourusername/recipe-box/internal/apperr"
	"github.com/yourusername/recipe-box/internal/models"
	"github.com/yourusername/recipe-box/internal/session"
)

// UserStore はサービスが必要とするユーザー永続化の操作です。
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// SessionManager はトークンとユーザーIDの対応を管理します。
type SessionManager interface {
	Create(ctx context.Context, userID uint) (string, error)
	Resolve(ctx context.Context, token string) (uint, bool, error)
	Destroy(ctx context.Context, token string) error
}

// SignupInput はサインアップ時の入力です。
type SignupInput struct {
	Username string
	Password string
	ImageURL string
	Bio      string
}

// Service はサインアップ・ログイン・ログアウト・現在ユーザー取得をまとめます。
type Service struct {
	users    UserStore
	sessions SessionManager
	hasher   models.PasswordHasher
}

// NewService は Service を作成します。
func NewService(users UserStore, sessions SessionManager, hasher models.PasswordHasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}
}

// Signup はユーザーを作成してセッションを開始します。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	if in.Username == "" || in.Password == "" {
		return nil, "", apperr.ErrValidation.WithMessage("username and password are required")
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperr.ErrDuplicateUsername
	}

	user := &models.User{
		Username: in.Username,
		ImageURL: in.ImageURL,
		Bio:      in.Bio,
	}
	if err := user.SetPassword(s.hasher, in.Password); err != nil {
		return nil, "", errors.Wrap(err, "failed to hash password")
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login は資格情報を検証してセッションを開始します。
// ユーザーが存在しない場合もパスワード不一致と同じ ErrUnauthorized を返します。
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.VerifyPassword(s.hasher, password) {
		return nil, "", apperr.ErrUnauthorized
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout はセッションを破棄します。
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.sessions.Destroy(ctx, token)
	if errors.Is(err, session.ErrNoActiveSession) {
		return apperr.ErrUnauthorized
	}
	return err
}

// CurrentUser はトークンに対応するユーザーを返します。
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUnauthorized
	}
	return user, nil
}
