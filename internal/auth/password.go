package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/recipe-box/internal/models"
)

// BcryptHasher は bcrypt によるパスワードハッシュ実装です。
type BcryptHasher struct {
	cost int
}

var _ models.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher は指定コストの BcryptHasher を作成します。範囲外のコストは既定値に丸めます。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文からソルト付きハッシュを生成します。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify はハッシュと候補が一致するかを返します。壊れたハッシュは false です。
func (h *BcryptHasher) Verify(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
