// Package models holds the domain types shared by repositories, services,
// handlers and the socket layer. JSON tags shape both the REST responses and
// the socket event payloads.
package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Role is the marketplace side a user acts on.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleBroker   Role = "broker"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleBroker:
		return true
	}
	return false
}

// User is a row of the users table.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	DisplayName  string    `json:"displayName"`
	AvatarURL    *string   `json:"avatarUrl"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the public part of a user joined into enriched reads.
type UserSummary struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Role        Role    `json:"role"`
}

// Summary strips private fields.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL, Role: u.Role}
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// Validate normalizes the request and checks its shape. Password strength is
// checked by the auth service.
//
//   - Email: RFC 5322 address, stored lower-case
//   - DisplayName: 1-64 characters
//   - Role: tenant | landlord | broker
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)

	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != r.Email {
		return fmt.Errorf("a valid email address is required")
	}
	if n := utf8.RuneCountInString(r.DisplayName); n < 1 || n > 64 {
		return fmt.Errorf("display name must be 1-64 characters")
	}
	if !r.Role.Valid() {
		return fmt.Errorf("role must be one of tenant, landlord, broker")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate lower-cases the email and requires both fields.
func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

// LoginResponse is returned by login; the token is also set as a cookie.
type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"` // seconds
}
