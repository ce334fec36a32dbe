package models

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices and balances go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

type User struct {
	ID        string          `json:"id" db:"id"`
	UserName  string          `json:"userName" db:"user_name"`
	Email     string          `json:"email" db:"email"`
	Password  string          `json:"-" db:"password_hash"`
	Role      string          `json:"role" db:"role"`
	Wallet    decimal.Decimal `json:"wallet" db:"wallet"`
	FCMToken  string          `json:"-" db:"fcm_token"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserFilter narrows user listings. Empty fields match everything.
type UserFilter struct {
	Role string
}

// UserUpdate carries the optional fields of a profile change.
type UserUpdate struct {
	UserName *string `json:"userName"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	FCMToken *string `json:"fcmToken"`
}

// Principal is the authenticated caller, decoded from the access token.
type Principal struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Claims struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	jwt.StandardClaims
}

func (c Claims) Principal() Principal {
	return Principal{ID: c.ID, UserName: c.UserName, Role: c.Role, Email: c.Email}
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	ID      string `json:"id,omitempty"`
	Email   string `json:"email,omitempty"`
	Self    string `json:"self,omitempty"`
}
