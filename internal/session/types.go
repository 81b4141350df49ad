// Package session は不透明なセッショントークンとユーザーIDの対応を管理します。
package session

import (
	"context"
	"time"
)

// Record はセッショントークン1件分の状態を表します。
type Record struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired は now 時点で期限切れかどうかを返します。ExpiresAt がゼロなら無期限です。
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Backend はセッションレコードの保存先です。
type Backend interface {
	// Save はレコードを保存します。ttl が 0 の場合は期限なしです。
	Save(ctx context.Context, record *Record, ttl time.Duration) error
	// Get はレコードを取得します。存在しない場合は nil, nil を返します。
	Get(ctx context.Context, token string) (*Record, error)
	// Delete はレコードを削除し、削除できたかを返します。
	Delete(ctx context.Context, token string) (bool, error)
}
