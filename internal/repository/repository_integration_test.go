package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinwatch/coinwatch/internal/testutil"
)

func newTestRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	repo, err := New(ctx, dbURL, Options{})
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return repo
}

func TestRepository_CreateAndGetAccount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	account := testutil.NewTestAccount(t, "alice@example.com")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}

	byID, err := repo.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account by ID: %v", err)
	}
	if byID.Email != account.Email || byID.FullName != account.FullName {
		t.Errorf("got %+v, want %+v", byID, account)
	}
	if byID.LastLoginAt != nil {
		t.Errorf("LastLoginAt should be nil before first login, got %v", byID.LastLoginAt)
	}

	byEmail, err := repo.GetAccountByEmail(ctx, account.Email)
	if err != nil {
		t.Fatalf("get account by email: %v", err)
	}
	if byEmail.ID != account.ID {
		t.Errorf("got ID %s, want %s", byEmail.ID, account.ID)
	}
}

func TestRepository_CreateAccount_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	first := testutil.NewTestAccount(t, "dup@example.com")
	if err := repo.CreateAccount(ctx, first); err != nil {
		t.Fatalf("create first account: %v", err)
	}

	second := testutil.NewTestAccount(t, "dup@example.com")
	if err := repo.CreateAccount(ctx, second); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestRepository_GetAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	if _, err := repo.GetAccountByID(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := repo.GetAccountByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRepository_StampLastLogin(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	account := testutil.NewTestAccount(t, "login@example.com")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.StampLastLogin(ctx, account.ID, at); err != nil {
		t.Fatalf("stamp last login: %v", err)
	}

	got, err := repo.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}

	if err := repo.StampLastLogin(ctx, "missing", at); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRepository_TrackedAssets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	account := testutil.NewTestAccount(t, "assets@example.com")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}

	btc := testutil.NewTestTrackedAsset(t, account.ID, 1)
	if err := repo.CreateTrackedAsset(ctx, btc); err != nil {
		t.Fatalf("create tracked asset: %v", err)
	}

	// Duplicate (account, asset) pair must be rejected, not overwritten.
	dup := testutil.NewTestTrackedAsset(t, account.ID, 1)
	if err := repo.CreateTrackedAsset(ctx, dup); !errors.Is(err, ErrTrackedAssetExists) {
		t.Errorf("expected ErrTrackedAssetExists, got %v", err)
	}

	eth := testutil.NewTestTrackedAsset(t, account.ID, 1027)
	eth.Symbol, eth.Name = "ETH", "Ethereum"
	eth.AddedAt = btc.AddedAt.Add(time.Second)
	if err := repo.CreateTrackedAsset(ctx, eth); err != nil {
		t.Fatalf("create second tracked asset: %v", err)
	}

	assets, err := repo.ListTrackedAssets(ctx, account.ID)
	if err != nil {
		t.Fatalf("list tracked assets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 tracked assets, got %d", len(assets))
	}
	// Insertion order, not rank order.
	if assets[0].AssetID != 1 || assets[1].AssetID != 1027 {
		t.Errorf("unexpected order: %d, %d", assets[0].AssetID, assets[1].AssetID)
	}

	removed, err := repo.DeleteTrackedAsset(ctx, account.ID, 1)
	if err != nil {
		t.Fatalf("delete tracked asset: %v", err)
	}
	if !removed {
		t.Error("expected removed=true for existing row")
	}

	removed, err = repo.DeleteTrackedAsset(ctx, account.ID, 1)
	if err != nil {
		t.Fatalf("delete tracked asset again: %v", err)
	}
	if removed {
		t.Error("expected removed=false for absent row")
	}
}

func TestRepository_DeleteAccountCascade(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	account := testutil.NewTestAccount(t, "cascade@example.com")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	for _, assetID := range []int64{1, 1027} {
		if err := repo.CreateTrackedAsset(ctx, testutil.NewTestTrackedAsset(t, account.ID, assetID)); err != nil {
			t.Fatalf("create tracked asset %d: %v", assetID, err)
		}
	}

	if err := repo.DeleteAccountCascade(ctx, account.ID); err != nil {
		t.Fatalf("delete account cascade: %v", err)
	}

	if _, err := repo.GetAccountByID(ctx, account.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound after delete, got %v", err)
	}

	assets, err := repo.ListTrackedAssets(ctx, account.ID)
	if err != nil {
		t.Fatalf("list tracked assets: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("expected no tracked assets after cascade, got %d", len(assets))
	}

	// Deleting again reports not found, never a partial success.
	if err := repo.DeleteAccountCascade(ctx, account.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound on second delete, got %v", err)
	}
}
