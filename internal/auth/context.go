package auth

import (
	"context"

	"github.com/coinwatch/coinwatch/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// accountContextKey is the context key for the authenticated account.
const accountContextKey contextKey = "account"

// ContextWithAccount adds the authenticated account view to the context.
func ContextWithAccount(ctx context.Context, account *model.AccountView) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// AccountFromContext retrieves the authenticated account from the context.
// Returns nil if not present.
func AccountFromContext(ctx context.Context) *model.AccountView {
	account, ok := ctx.Value(accountContextKey).(*model.AccountView)
	if !ok {
		return nil
	}
	return account
}

// AccountIDFromContext is a convenience function to get the account ID.
// Returns empty string if not authenticated.
func AccountIDFromContext(ctx context.Context) string {
	account := AccountFromContext(ctx)
	if account == nil {
		return ""
	}
	return account.ID
}
