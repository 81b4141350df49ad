package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoActiveSession はトークンに対応するセッションが無いことを表します。
	ErrNoActiveSession = errors.New("no active session")
	// ErrInvalidRecord は保存できないレコードを表します。
	ErrInvalidRecord = errors.New("invalid session record")
)

// Manager はセッションの発行・解決・破棄を行います。
type Manager struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// NewManager は Manager を作成します。ttl が 0 の場合セッションは失効しません。
func NewManager(backend Backend, ttl time.Duration) *Manager {
	return &Manager{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create は userID に紐づく新しいセッションを作成し、トークンを返します。
func (m *Manager) Create(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", errors.Wrap(ErrInvalidRecord, "userID is required")
	}
	token, err := generateToken()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate session token")
	}
	now := m.now().UTC()
	record := &Record{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
	}
	if m.ttl > 0 {
		record.ExpiresAt = now.Add(m.ttl)
	}
	if err := m.backend.Save(ctx, record, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve はトークンに対応するユーザーIDを返します。
// トークンが空・未知・破棄済み・期限切れの場合は ok=false です。
func (m *Manager) Resolve(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	record, err := m.backend.Get(ctx, token)
	if err != nil {
		return 0, false, err
	}
	if record == nil {
		return 0, false, nil
	}
	if record.Expired(m.now()) {
		_, _ = m.backend.Delete(ctx, token)
		return 0, false, nil
	}
	return record.UserID, true, nil
}

// Destroy はセッションを破棄します。存在しない場合は ErrNoActiveSession です。
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoActiveSession
	}
	deleted, err := m.backend.Delete(ctx, token)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNoActiveSession
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
