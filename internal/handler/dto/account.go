// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/coinwatch/coinwatch/internal/model"
	"github.com/coinwatch/coinwatch/internal/service"
)

// SignupRequest represents the request body for account creation.
type SignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents a successful signup or login.
type AuthResponse struct {
	Account model.AccountView `json:"account"`
	Token   string            `json:"token"`
}

// VerifyResponse represents a successful token verification.
type VerifyResponse struct {
	Account model.AccountView `json:"account"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToAuthResponse converts a service AuthResult to an AuthResponse DTO.
func ToAuthResponse(result *service.AuthResult) *AuthResponse {
	return &AuthResponse{
		Account: result.Account,
		Token:   result.Token,
	}
}
