package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload carried by issued access tokens. The username is
// the directory key of the authenticated account.
type TokenClaims struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
