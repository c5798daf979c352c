package types

import "github.com/golang-jwt/jwt/v4"

type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
