package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"farmstay/src/types"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RequestID returns the correlation id set by the RequestID middleware.
func RequestID(ctx *gin.Context) string {
	return ctx.GetString("request_id")
}

// AbortWithError writes the structured failure envelope every error
// path uses.
func AbortWithError(ctx *gin.Context, status int, errorCode, message string) {
	ctx.AbortWithStatusJSON(status, types.ErrorResponse{
		Ok:        false,
		ErrorCode: errorCode,
		Message:   message,
		RequestID: RequestID(ctx),
	})
}

// AbortWithFieldErrors is AbortWithError plus per-field validation
// detail extracted from validator tags.
func AbortWithFieldErrors(ctx *gin.Context, errorCode, message string, err error) {
	fieldErrors := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fieldErrors[fe.Field()] = fe.Tag()
		}
	}
	ctx.AbortWithStatusJSON(400, types.ErrorResponse{
		Ok:          false,
		ErrorCode:   errorCode,
		Message:     message,
		RequestID:   RequestID(ctx),
		FieldErrors: fieldErrors,
	})
}

// ClientKey is the rate-limit key for a request.
func ClientKey(ctx *gin.Context) string {
	return ctx.ClientIP()
}

// NewResetToken returns a random reset token plus its stored hash and
// expiry. Only the hash is persisted.
func NewResetToken(ttl time.Duration) (token string, hash string, expiry time.Time) {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	token = hex.EncodeToString(buf)
	return token, HashToken(token), time.Now().Add(ttl)
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
