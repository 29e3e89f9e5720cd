// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Account represents a registered user account.
// PasswordHash is never serialized; public views go through AccountView.
type Account struct {
	ID           string
	FullName     string
	Email        string // normalized: lower-cased, trimmed
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time // nil until first login
}

// AccountView is the public projection of an Account.
type AccountView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// View returns the public projection of the account.
func (a *Account) View() AccountView {
	return AccountView{
		ID:       a.ID,
		FullName: a.FullName,
		Email:    a.Email,
	}
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
