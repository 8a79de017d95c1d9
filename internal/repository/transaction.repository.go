package repository

import (
	"context"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/pkg/pg"
)

// TransactionRepository is append-only. There is no update or delete:
// corrections are compensating entries so the ledger stays auditable.
type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// SumByAccount folds the full ledger for one account: credits minus debits.
// This is the source of truth a cached balance must always reconcile with.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	var sum *int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select("SUM(CASE WHEN type = ? THEN amount ELSE -amount END)", model.TransactionTypeCredit).
		Where("account_id = ?", accountID).
		Scan(&sum).
		Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Type != nil && *f.Type != "" {
		q = q.Where("type = ?", *f.Type)
	}
	if f.ListingID != nil {
		q = q.Where("listing_id = ?", *f.ListingID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "id"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}
