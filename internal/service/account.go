// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/coinwatch/coinwatch/internal/auth"
	"github.com/coinwatch/coinwatch/internal/metrics"
	"github.com/coinwatch/coinwatch/internal/model"
	"github.com/coinwatch/coinwatch/internal/repository"
)

// Account service errors.
var (
	ErrMissingFields    = errors.New("full name, email and password are required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrEmailTaken       = errors.New("an account with this email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases must stay indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken covers malformed, unsigned, expired tokens and
	// tokens whose account no longer exists.
	ErrInvalidToken    = errors.New("invalid token")
	ErrAccountNotFound = errors.New("account not found")
)

const minPasswordLength = 6

// AccountStore is the persistence contract the account service needs.
// *repository.Repository satisfies it; tests use in-memory fakes.
// DeleteAccountCascade removes the account's tracked assets along with
// the account itself, so ownership of the cascade is explicit here
// rather than an implicit cross-service call.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	StampLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteAccountCascade(ctx context.Context, id string) error
}

// AccountService handles signup, login, token verification and account
// deletion.
type AccountService struct {
	store   AccountStore
	tokens  *auth.TokenIssuer
	metrics metrics.Recorder
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountStore, tokens *auth.TokenIssuer, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
	}
}

// AuthResult is returned by Signup and Login: the public account view
// plus a fresh bearer token. The password hash never leaves the store.
type AuthResult struct {
	Account model.AccountView
	Token   string
}

// Signup registers a new account and logs it in.
func (s *AccountService) Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	fullName = strings.TrimSpace(fullName)
	email = model.NormalizeEmail(email)

	if fullName == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:           ulid.Make().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	result, err := s.finishLogin(ctx, account)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSignup()

	return result, nil
}

// Login authenticates an account by email and password.
// Unknown email and wrong password fail identically.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.metrics.IncAuthFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	match, err := auth.VerifyPassword(password, account.PasswordHash)
	if err != nil || !match {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	result, err := s.finishLogin(ctx, account)
	if err != nil {
		return nil, err
	}

	s.metrics.IncLogin()

	return result, nil
}

// finishLogin issues a token and stamps last-login-at.
func (s *AccountService) finishLogin(ctx context.Context, account *model.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.store.StampLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("failed to stamp last login: %w", err)
	}
	account.LastLoginAt = &now

	return &AuthResult{
		Account: account.View(),
		Token:   token,
	}, nil
}

// VerifyToken validates a bearer token and returns the account it
// references. Side-effect-free. A token for a since-deleted account is
// invalid even when its signature and expiry check out.
func (s *AccountService) VerifyToken(ctx context.Context, token string) (*model.AccountView, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidToken
	}

	account, err := s.store.GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.metrics.IncAuthFailure()
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	view := account.View()
	return &view, nil
}

// DeleteAccount removes the account and cascades to its tracked
// assets. The cascade either completes or the whole operation fails;
// success means neither the account nor its tracked assets remain.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.store.DeleteAccountCascade(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.metrics.IncAccountDeleted()

	return nil
}
