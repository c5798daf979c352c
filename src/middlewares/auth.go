package middlewares

import (
	"log"
	"net/http"
	"os"
	"time"

	"farmstay/src/db"
	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// jwtKey reads the secret per call so a value set after process start
// (tests, late-injected config) is honored.
func jwtKey() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

const SessionCookieName = "farmstay_admin"

// NewSessionToken mints a signed session token for a freshly
// authenticated admin.
func NewSessionToken(email string, ttl time.Duration) (string, error) {
	claims := &types.AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey())
}

// AdminAuthMiddleware authenticates the operator session cookie and
// re-checks the account against the allow-listed admin row.
func AdminAuthMiddleware(ctx *gin.Context) {
	cookie, err := ctx.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.AdminClaims{}
	tkn, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (any, error) {
		return jwtKey(), nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	d := db.GetDb()
	var admin models.AdminUser
	if err := d.
		Model(&models.AdminUser{}).
		Where(&models.AdminUser{Email: claims.Email}).
		First(&admin).
		Error; err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("admin_email", admin.Email)
	ctx.Set("admin_id", admin.ID)
}
