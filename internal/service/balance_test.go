package service

import (
	"context"
	"errors"
	"testing"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
)

func newTestBalanceService(t *testing.T) (*BalanceService, *mockUserRepo, *mockTransactionRepo) {
	t.Helper()
	users := newMockUserRepo()
	transactions := newMockTransactionRepo()
	provisioner := NewUserService(users, testLogger(t))
	return NewBalanceService(users, transactions, provisioner, testLogger(t)), users, transactions
}

// =========================================================================
// CREDIT TESTS
// =========================================================================

func TestCredit_ProvisionsAndAdds(t *testing.T) {
	svc, _, _ := newTestBalanceService(t)

	result, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 0.5, "", "test credit")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if result.User.Username != "alice" {
		t.Errorf("Username = %q, want alice", result.User.Username)
	}
	if result.User.Coins != 0.5 {
		t.Errorf("Coins = %v, want 0.5", result.User.Coins)
	}
}

func TestCredit_ActivatesOnCrossingZero(t *testing.T) {
	svc, _, _ := newTestBalanceService(t)

	result, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 0.5, "", "first credit")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if result.User.ActivatedAt == nil {
		t.Fatal("ActivatedAt should be stamped once coins go above zero")
	}
}

func TestCredit_ZeroAmountDoesNotActivate(t *testing.T) {
	svc, _, transactions := newTestBalanceService(t)

	result, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 0, "", "no-op")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if result.User.ActivatedAt != nil {
		t.Error("ActivatedAt should stay nil while coins are zero")
	}
	if len(transactions.entries) != 0 {
		t.Errorf("recorded %d transactions, want 0 for a zero credit", len(transactions.entries))
	}
}

func TestCredit_ActivationIsSticky(t *testing.T) {
	svc, users, _ := newTestBalanceService(t)

	first, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 0.5, "", "activate")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	stamped := *first.User.ActivatedAt

	// Drain the balance back to zero, then recover it.
	if _, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), -0.5, "", "drain"); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	second, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 0.5, "", "recover")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}

	if second.User.ActivatedAt == nil {
		t.Fatal("ActivatedAt lost on the way back up")
	}
	if !second.User.ActivatedAt.Equal(stamped) {
		t.Errorf("ActivatedAt = %v, want the original %v", second.User.ActivatedAt, stamped)
	}

	stored, err := users.FindByID(context.Background(), second.User.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.ActivatedAt == nil || !stored.ActivatedAt.Equal(stamped) {
		t.Errorf("persisted ActivatedAt = %v, want %v", stored.ActivatedAt, stamped)
	}
}

func TestCredit_NegativeAmountSkipsHistory(t *testing.T) {
	svc, _, transactions := newTestBalanceService(t)

	if _, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), 2, "", "seed"); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	result, err := svc.Credit(context.Background(), model.ParseIdentifier("alice"), -1.5, "", "penalty")
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if result.User.Coins != 0.5 {
		t.Errorf("Coins = %v, want 0.5", result.User.Coins)
	}
	// Only the positive credit shows up in the earning history.
	if len(transactions.entries) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(transactions.entries))
	}
	if transactions.entries[0].Amount != 2 {
		t.Errorf("recorded amount = %v, want 2", transactions.entries[0].Amount)
	}
}

// =========================================================================
// MINE / CLAIM TESTS
// =========================================================================

func TestMine_FixedStep(t *testing.T) {
	svc, users, _ := newTestBalanceService(t)

	user := &model.User{Username: "miner"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	result, err := svc.Mine(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if result.User.Coins != ManualMineReward {
		t.Errorf("Coins = %v, want %v", result.User.Coins, ManualMineReward)
	}

	result, err = svc.Mine(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if result.User.Coins != 2*ManualMineReward {
		t.Errorf("Coins = %v, want %v after two clicks", result.User.Coins, 2*ManualMineReward)
	}
}

func TestMine_RecordsTransaction(t *testing.T) {
	svc, users, transactions := newTestBalanceService(t)

	user := &model.User{Username: "miner"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	result, err := svc.Mine(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}

	if len(transactions.entries) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(transactions.entries))
	}
	entry := transactions.entries[0]
	if entry.Type != model.TransactionEarn {
		t.Errorf("Type = %q, want %q", entry.Type, model.TransactionEarn)
	}
	if entry.Amount != ManualMineReward {
		t.Errorf("Amount = %v, want %v", entry.Amount, ManualMineReward)
	}
	if entry.Note != "Manual mining click" {
		t.Errorf("Note = %q", entry.Note)
	}
	if len(result.Transactions) != 1 {
		t.Errorf("result carried %d transactions, want 1", len(result.Transactions))
	}
}

func TestMine_UnknownUser(t *testing.T) {
	svc, _, _ := newTestBalanceService(t)

	_, err := svc.Mine(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Mine() error = %v, want ErrNotFound", err)
	}
}

func TestClaim_CreditsSessionReward(t *testing.T) {
	svc, users, transactions := newTestBalanceService(t)

	user := &model.User{Username: "claimer"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	result, err := svc.Claim(context.Background(), user.ID, 3.25)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if result.User.Coins != 3.25 {
		t.Errorf("Coins = %v, want 3.25", result.User.Coins)
	}
	if len(transactions.entries) != 1 || transactions.entries[0].Note != "Mining session reward" {
		t.Errorf("transactions = %+v, want one session-reward entry", transactions.entries)
	}
}

func TestClaim_ZeroAmountIsHarmless(t *testing.T) {
	svc, users, transactions := newTestBalanceService(t)

	user := &model.User{Username: "claimer"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	result, err := svc.Claim(context.Background(), user.ID, 0)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if result.User.Coins != 0 {
		t.Errorf("Coins = %v, want 0", result.User.Coins)
	}
	if len(transactions.entries) != 0 {
		t.Errorf("recorded %d transactions, want 0", len(transactions.entries))
	}
}

// =========================================================================
// HISTORY TESTS
// =========================================================================

func TestHistory_NewestFirstAndCapped(t *testing.T) {
	svc, users, _ := newTestBalanceService(t)

	user := &model.User{Username: "grinder"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	for i := 0; i < recentTransactionLimit+3; i++ {
		if _, err := svc.Mine(context.Background(), user.ID); err != nil {
			t.Fatalf("Mine() #%d error = %v", i, err)
		}
	}

	history, err := svc.History(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != recentTransactionLimit {
		t.Fatalf("len(history) = %d, want %d", len(history), recentTransactionLimit)
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.After(history[i-1].CreatedAt) {
			t.Fatalf("history not newest-first at index %d", i)
		}
	}
}
