package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/recipe-box/internal/apperr"
	"github.com/yourusername/recipe-box/internal/models"
)

var errRecipeNotFound = apperr.ErrNotFound.WithMessage("Recipe not found")

// RecipeStore はレシピの永続化を担います。
type RecipeStore struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewRecipeStore は RecipeStore を作成します。
func NewRecipeStore(db *gorm.DB) *RecipeStore {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return &RecipeStore{db: db, validate: v}
}

// Create はレシピを保存し、所有ユーザーを読み込んだ状態で recipe を更新します。
func (s *RecipeStore) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe == nil {
		return errors.New("recipe is nil")
	}
	if err := s.validateRecipe(recipe); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", recipe.UserID).Count(&owners).Error; err != nil {
			return errors.Wrap(err, "failed to check recipe owner")
		}
		if owners == 0 {
			return apperr.ErrValidation.WithMessage("recipe owner does not exist")
		}

		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			if isForeignKeyConstraintViolation(err) {
				return apperr.ErrValidation.WithMessage("recipe owner does not exist")
			}
			return errors.Wrap(err, "failed to create recipe")
		}

		var created models.Recipe
		if err := tx.Preload("User").First(&created, recipe.ID).Error; err != nil {
			return errors.Wrap(err, "failed to reload recipe")
		}
		*recipe = created
		return nil
	})
}

// List はすべてのレシピを ID 順で返します。所有者や会員限定フラグで絞り込みはしません。
func (s *RecipeStore) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Preload("User").Order("id").Find(&recipes).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}
	return recipes, nil
}

// FindByID は ID で検索します。見つからない場合は nil, nil です。
func (s *RecipeStore) FindByID(ctx context.Context, id uint) (*models.Recipe, error) {
	if id == 0 {
		return nil, nil
	}
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Preload("User").First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find recipe")
	}
	return &recipe, nil
}

// Update はタイトル・手順・所要時間を置き換えます。会員限定フラグは指定時のみ更新します。
func (s *RecipeStore) Update(ctx context.Context, id uint, upd models.RecipeUpdate) (*models.Recipe, error) {
	var updated models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRecipeNotFound
			}
			return errors.Wrap(err, "failed to load recipe")
		}

		recipe.Title = upd.Title
		recipe.Instructions = upd.Instructions
		recipe.MinutesToComplete = upd.MinutesToComplete
		columns := []string{"title", "instructions", "minutes_to_complete"}
		if upd.IsMemberOnly != nil {
			recipe.IsMemberOnly = *upd.IsMemberOnly
			columns = append(columns, "is_member_only")
		}
		if err := s.validateRecipe(&recipe); err != nil {
			return err
		}

		if err := tx.Model(&recipe).Select(columns).Updates(&recipe).Error; err != nil {
			return errors.Wrap(err, "failed to update recipe")
		}
		if err := tx.Preload("User").First(&updated, id).Error; err != nil {
			return errors.Wrap(err, "failed to reload recipe")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete はレシピを削除します。
func (s *RecipeStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Recipe{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete recipe")
	}
	if res.RowsAffected == 0 {
		return errRecipeNotFound
	}
	return nil
}

func (s *RecipeStore) validateRecipe(recipe *models.Recipe) error {
	err := s.validate.Struct(recipe)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ErrValidation.Wrap(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return apperr.ErrValidation.WithMessage(strings.Join(msgs, "; "))
}
