package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/yourusername/recipe-box/internal/apperr"
	"github.com/yourusername/recipe-box/internal/models"
)

// UserStore はユーザーの永続化を担います。ユーザー名の一意性は unique index で保証します。
type UserStore struct {
	db *gorm.DB
}

// NewUserStore は UserStore を作成します。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create はユーザーを保存し、採番された ID を user に反映します。
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	if strings.TrimSpace(user.Username) == "" {
		return apperr.ErrValidation.WithMessage("username is required")
	}
	if user.PasswordHash == "" {
		return apperr.ErrValidation.WithMessage("password is required")
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return apperr.ErrDuplicateUsername.Wrap(err)
		}
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

// FindByUsername はユーザー名で検索します。見つからない場合は nil, nil です。
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find user by username")
	}
	return &user, nil
}

// FindByID は ID で検索します。見つからない場合は nil, nil です。
func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find user by id")
	}
	return &user, nil
}
