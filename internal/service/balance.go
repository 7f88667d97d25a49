package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

const (
	// ManualMineReward is the fixed credit for one tap on the mine button.
	ManualMineReward = 0.5

	// recentTransactionLimit caps the history slice returned with each
	// balance response — the wallet screen shows the last ten entries.
	recentTransactionLimit = 10
)

// BalanceResult is returned by every balance mutation: the user as
// persisted (new coins, possibly fresh ActivatedAt) plus their recent
// earning history for the wallet screen.
type BalanceResult struct {
	User         *model.User
	Transactions []model.Transaction
}

// BalanceService applies coin deltas and derives the activation timestamp.
type BalanceService struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
	provisioner  *UserService
	logger       *slog.Logger
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(
	users repository.UserRepository,
	transactions repository.TransactionRepository,
	provisioner *UserService,
	logger *slog.Logger,
) *BalanceService {
	return &BalanceService{
		users:        users,
		transactions: transactions,
		provisioner:  provisioner,
		logger:       logger,
	}
}

// Credit provisions-or-fetches the identified user and adds amount to their
// balance. The identifier path is for unauthenticated flows (register-time
// grants); authenticated flows use Mine/Claim with a token-verified id.
func (s *BalanceService) Credit(ctx context.Context, ident model.Identifier, amount float64, suggestedUsername, note string) (*BalanceResult, error) {
	user, err := s.provisioner.Ensure(ctx, ident, suggestedUsername)
	if err != nil {
		return nil, err
	}
	return s.credit(ctx, user, amount, note)
}

// Mine applies the fixed manual-mining reward to the authenticated user.
// Unlike Credit, the user must already exist — their id came from a token.
func (s *BalanceService) Mine(ctx context.Context, userID int64) (*BalanceResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.credit(ctx, user, ManualMineReward, "Manual mining click")
}

// Claim credits a finished mining session's reward to the authenticated
// user. The amount arrives from the client and may be any real number; the
// handler has already coerced malformed input to 0.
func (s *BalanceService) Claim(ctx context.Context, userID int64, amount float64) (*BalanceResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.credit(ctx, user, amount, "Mining session reward")
}

// credit is the single choke point for balance mutation.
//
// Activation edge: if coins were ≤0 before and are >0 after, and the user
// was never activated, activated_at is stamped now. The timestamp is
// write-once — a balance that later dips to ≤0 and recovers does not stamp
// again.
func (s *BalanceService) credit(ctx context.Context, user *model.User, amount float64, note string) (*BalanceResult, error) {
	wasInactive := user.Coins <= 0
	user.Coins += amount

	if wasInactive && user.Coins > 0 && user.ActivatedAt == nil {
		now := time.Now()
		user.ActivatedAt = &now
		s.logger.Info("user activated",
			slog.Int64("id", user.ID),
			slog.String("username", user.Username),
		)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("crediting user %d: %w", user.ID, err)
	}

	// History is an audit trail, not the balance of record. The balance is
	// already committed above, so a failed history write is logged and the
	// credit still reported as a success.
	if amount > 0 {
		tx := &model.Transaction{
			UserID: user.ID,
			Type:   model.TransactionEarn,
			Amount: amount,
			Note:   note,
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			s.logger.Error("failed to record transaction",
				slog.Int64("user", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	recent, err := s.transactions.ListByUser(ctx, user.ID, recentTransactionLimit)
	if err != nil {
		s.logger.Error("failed to list transactions",
			slog.Int64("user", user.ID),
			slog.String("error", err.Error()),
		)
		recent = []model.Transaction{}
	}

	return &BalanceResult{User: user, Transactions: recent}, nil
}

// History returns the user's recent earning entries without mutating
// anything. Used by the profile endpoint.
func (s *BalanceService) History(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID, recentTransactionLimit)
}
