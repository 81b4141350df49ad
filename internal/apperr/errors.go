// Package apperr はAPI全体で共有するエラー分類とレスポンス変換を提供します。
package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error はHTTPステータスとエラーコードを持つアプリケーションエラーです。
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// New は Error を作成します。
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is はコードが一致すれば同じ種類のエラーとみなします。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage はメッセージだけを差し替えたコピーを返します。
func (e *Error) WithMessage(message string) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: message, Err: e.Err}
}

// Wrap は原因エラーを保持したコピーを返します。
func (e *Error) Wrap(err error) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: e.Message, Err: err}
}

var (
	ErrValidation        = New(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid request")
	ErrDuplicateUsername = New(http.StatusUnprocessableEntity, "DUPLICATE_USERNAME", "Username already taken")
	ErrUnauthorized      = New(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
	ErrForbidden         = New(http.StatusForbidden, "FORBIDDEN", "Forbidden")
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Not found")
)

// Respond は err を {code, message} 形式のJSONに変換して返します。
// 分類されていないエラーは 500 とし、詳細はログにのみ残します。
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.Status, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	slog.ErrorContext(c.Request.Context(), "unhandled error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "Internal server error",
	})
}
