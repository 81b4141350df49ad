package recipes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/recipe-box/internal/apperr"
	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/models"
)

// RecipeService はハンドラーが利用するレシピ操作です。
type RecipeService interface {
	List(ctx context.Context, callerID uint) ([]models.Recipe, error)
	Create(ctx context.Context, callerID uint, in Input) (*models.Recipe, error)
	Get(ctx context.Context, callerID, id uint) (*models.Recipe, error)
	Update(ctx context.Context, callerID, id uint, in Input) (*models.Recipe, error)
	Delete(ctx context.Context, callerID, id uint) error
}

type recipeRequest struct {
	Title             string `json:"title" binding:"required,max=100"`
	Instructions      string `json:"instructions" binding:"required,max=1000"`
	MinutesToComplete *int   `json:"minutes_to_complete" binding:"required"`
	IsMemberOnly      *bool  `json:"is_member_only"`
}

func (r recipeRequest) input() Input {
	return Input{
		Title:             r.Title,
		Instructions:      r.Instructions,
		MinutesToComplete: *r.MinutesToComplete,
		IsMemberOnly:      r.IsMemberOnly,
	}
}

// ListHandler は GET /recipes のハンドラーを返します。
func ListHandler(svc RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, _ := auth.UserIDFromContext(c)
		recipes, err := svc.List(c.Request.Context(), callerID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, recipes)
	}
}

// CreateHandler は POST /recipes のハンドラーを返します。
func CreateHandler(svc RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, ok := auth.UserIDFromContext(c)
		if !ok {
			apperr.Respond(c, apperr.ErrUnauthorized)
			return
		}

		req, ok := bindRecipe(c)
		if !ok {
			return
		}

		recipe, err := svc.Create(c.Request.Context(), callerID, req.input())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, recipe)
	}
}

// GetHandler は GET /recipes/:id のハンドラーを返します。
func GetHandler(svc RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		callerID, _ := auth.UserIDFromContext(c)

		recipe, err := svc.Get(c.Request.Context(), callerID, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, recipe)
	}
}

// UpdateHandler は PUT /recipes/:id のハンドラーを返します。
func UpdateHandler(svc RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		req, ok := bindRecipe(c)
		if !ok {
			return
		}
		callerID, _ := auth.UserIDFromContext(c)

		recipe, err := svc.Update(c.Request.Context(), callerID, id, req.input())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, recipe)
	}
}

// DeleteHandler は DELETE /recipes/:id のハンドラーを返します。
func DeleteHandler(svc RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		callerID, _ := auth.UserIDFromContext(c)

		if err := svc.Delete(c.Request.Context(), callerID, id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func bindRecipe(c *gin.Context) (recipeRequest, bool) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrValidation.WithMessage(
			"title (max 100), instructions (max 1000) and minutes_to_complete are required"))
		return req, false
	}
	return req, true
}

// parseID は :id を解釈します。整数でない ID は存在しないレシピとして扱います。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apperr.Respond(c, errRecipeNotFound)
		return 0, false
	}
	return uint(id), true
}
