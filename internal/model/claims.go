package model

import "github.com/golang-jwt/jwt/v5"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of access and refresh tokens.
// Refresh tokens only carry UserID, TokenType and the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    ID     `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	TokenType string `json:"typ"`
}
