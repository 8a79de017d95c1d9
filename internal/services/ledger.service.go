package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/repository"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	SumByAccount(ctx context.Context, accountID int64) (int64, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

// AppendRequest is a manual ledger entry: a grant, a redemption, an
// adjustment. Purchase settlements append through MarketplaceService instead.
type AppendRequest struct {
	AccountID      int64
	CounterpartyID *int64
	Amount         uint
	Type           string
}

func (p AppendRequest) Validate() error {
	if p.AccountID == 0 {
		return errors.New("account_id is required")
	}
	if p.Amount == 0 {
		return errors.New("amount must be positive")
	}
	if p.Type != model.TransactionTypeCredit && p.Type != model.TransactionTypeDebit {
		return fmt.Errorf("unknown transaction type %q", p.Type)
	}
	return nil
}

// LedgerService is the append-only credit ledger. An account's balance is the
// fold of its entries; the cached balance column exists for the spend guard
// and always reconciles with BalanceOf.
type LedgerService struct {
	ledgerRepo TransactionRepository
	userRepo   BalanceRepository
}

func NewLedgerService(ledgerRepo TransactionRepository, userRepo BalanceRepository) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
	}
}

// Append records a ledger entry and adjusts the cached balance atomically.
// A debit that would take the balance below zero fails with ErrInvalidAmount
// and appends nothing.
func (s *LedgerService) Append(ctx context.Context, p AppendRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, p.AccountID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	var appended *model.Transaction

	err := s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if p.Type == model.TransactionTypeDebit {
			if err := s.userRepo.DeductBalance(ctx, p.AccountID, p.Amount); err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return ErrInvalidAmount
				}
				return fmt.Errorf("deduct balance: %w", err)
			}
		} else {
			if err := s.userRepo.AddBalance(ctx, p.AccountID, p.Amount); err != nil {
				return fmt.Errorf("add balance: %w", err)
			}
		}

		txn, err := s.ledgerRepo.Create(ctx, &model.Transaction{
			AccountID:      p.AccountID,
			CounterpartyID: p.CounterpartyID,
			Amount:         p.Amount,
			Type:           p.Type,
		})
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		appended = txn

		return nil
	})
	if err != nil {
		return nil, err
	}

	return appended, nil
}

// BalanceOf folds the account's ledger. This is the source of truth; the
// cached column on users is an optimization for the spend guard.
func (s *LedgerService) BalanceOf(ctx context.Context, accountID int64) (int64, error) {
	if _, err := s.userRepo.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return s.ledgerRepo.SumByAccount(ctx, accountID)
}

func (s *LedgerService) History(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.ledgerRepo.List(ctx, f)
}
