// Package recipes はレシピの CRUD をセッション認証つきで提供します。
package recipes

import (
	"context"

	"github.com/yourusername/recipe-box/internal/apperr"
	"github.com/yourusername/recipe-box/internal/models"
)

var errRecipeNotFound = apperr.ErrNotFound.WithMessage("Recipe not found")

// Store はレシピ永続化の操作です。
type Store interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	List(ctx context.Context) ([]models.Recipe, error)
	FindByID(ctx context.Context, id uint) (*models.Recipe, error)
	Update(ctx context.Context, id uint, upd models.RecipeUpdate) (*models.Recipe, error)
	Delete(ctx context.Context, id uint) error
}

// Policy は ID 指定の操作に対するアクセス制御です。
// ゼロ値は未ログインでも取得・更新・削除できる従来の挙動になります。
type Policy struct {
	RequireSessionForByID bool // 取得・更新・削除にログインを要求する
	EnforceOwnership      bool // 更新・削除を所有者に限定する（RequireSessionForByID と併用）
}

// Input はレシピ作成・更新の入力です。IsMemberOnly は nil なら未指定です。
type Input struct {
	Title             string
	Instructions      string
	MinutesToComplete int
	IsMemberOnly      *bool
}

// Service はレシピ操作をまとめます。callerID が 0 の場合は未ログインを表します。
type Service struct {
	store  Store
	policy Policy
}

// NewService は Service を作成します。
func NewService(store Store, policy Policy) *Service {
	return &Service{store: store, policy: policy}
}

// List はすべてのレシピを返します。ログインが必要です。
func (s *Service) List(ctx context.Context, callerID uint) ([]models.Recipe, error) {
	if callerID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	recipes, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

// Create はログイン中のユーザーを所有者としてレシピを作成します。
func (s *Service) Create(ctx context.Context, callerID uint, in Input) (*models.Recipe, error) {
	if callerID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	recipe := &models.Recipe{
		Title:             in.Title,
		Instructions:      in.Instructions,
		MinutesToComplete: in.MinutesToComplete,
		UserID:            callerID,
	}
	if in.IsMemberOnly != nil {
		recipe.IsMemberOnly = *in.IsMemberOnly
	}
	if err := s.store.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Get は ID でレシピを取得します。
func (s *Service) Get(ctx context.Context, callerID, id uint) (*models.Recipe, error) {
	if err := s.checkSession(callerID); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update はレシピを置き換えます。
func (s *Service) Update(ctx context.Context, callerID, id uint, in Input) (*models.Recipe, error) {
	if err := s.checkSession(callerID); err != nil {
		return nil, err
	}
	if s.policy.EnforceOwnership {
		if err := s.checkOwner(ctx, callerID, id); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, id, models.RecipeUpdate{
		Title:             in.Title,
		Instructions:      in.Instructions,
		MinutesToComplete: in.MinutesToComplete,
		IsMemberOnly:      in.IsMemberOnly,
	})
}

// Delete はレシピを削除します。
func (s *Service) Delete(ctx context.Context, callerID, id uint) error {
	if err := s.checkSession(callerID); err != nil {
		return err
	}
	if s.policy.EnforceOwnership {
		if err := s.checkOwner(ctx, callerID, id); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) checkSession(callerID uint) error {
	if s.policy.RequireSessionForByID && callerID == 0 {
		return apperr.ErrUnauthorized
	}
	return nil
}

func (s *Service) checkOwner(ctx context.Context, callerID, id uint) error {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if recipe.UserID != callerID {
		return apperr.ErrForbidden
	}
	return nil
}

func (s *Service) find(ctx context.Context, id uint) (*models.Recipe, error) {
	recipe, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errRecipeNotFound
	}
	return recipe, nil
}
