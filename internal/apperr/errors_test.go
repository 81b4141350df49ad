package apperr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	custom := ErrNotFound.WithMessage("Recipe not found")
	wrapped := pkgerrors.Wrap(custom, "find recipe")

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrUnauthorized)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := pkgerrors.New("boom")
	err := ErrValidation.Wrap(cause)

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"app error", ErrDuplicateUsername, http.StatusUnprocessableEntity, "DUPLICATE_USERNAME"},
		{"wrapped app error", pkgerrors.Wrap(ErrUnauthorized, "login"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"plain error", pkgerrors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Respond(c, tt.err)

			require.Equal(t, tt.wantCode, rec.Code)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantBody, payload["code"])
			assert.NotContains(t, payload["message"], "db down")
		})
	}
}
