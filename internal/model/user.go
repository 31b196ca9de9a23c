package model

import (
	"slices"
	"time"
)

// TokenKindAuth is the kind of token issued on sign-up and login.
const TokenKindAuth = "auth"

// Token is a credential issued to a user.
type Token struct {
	Kind  string `json:"access" bson:"access"`
	Token string `json:"token" bson:"token"`
}

// User represents an account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Tokens       []Token
	CreatedAt    time.Time
}

// HasToken reports whether the user still holds the given token of the given kind.
func (u *User) HasToken(token, kind string) bool {
	return slices.ContainsFunc(u.Tokens, func(t Token) bool {
		return t.Token == token && t.Kind == kind
	})
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID string
	Email  string
	Token  string
}
