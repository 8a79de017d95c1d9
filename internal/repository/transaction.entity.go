package repository

import (
	"time"

	"github.com/givecycle/marketplace/internal/model"
)

type TransactionEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	AccountID      int64     `db:"account_id"      gorm:"column:account_id;not null;index"`
	CounterpartyID *int64    `db:"counterparty_id" gorm:"column:counterparty_id;index"`
	ListingID      *int64    `db:"listing_id"      gorm:"column:listing_id;index"`
	DonationID     *int64    `db:"donation_id"     gorm:"column:donation_id;index"`
	Amount         uint      `db:"amount"          gorm:"column:amount;not null"`
	Type           string    `db:"type"            gorm:"column:type;not null"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:             m.ID,
		AccountID:      m.AccountID,
		CounterpartyID: m.CounterpartyID,
		ListingID:      m.ListingID,
		DonationID:     m.DonationID,
		Amount:         m.Amount,
		Type:           m.Type,
		CreatedAt:      m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:             e.ID,
		AccountID:      e.AccountID,
		CounterpartyID: e.CounterpartyID,
		ListingID:      e.ListingID,
		DonationID:     e.DonationID,
		Amount:         e.Amount,
		Type:           e.Type,
		CreatedAt:      e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
