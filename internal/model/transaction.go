package model

import "time"

// Transaction types. The ledger is append-only; corrections are compensating
// entries, never in-place edits.
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

type Transaction struct {
	ID             int64     `json:"id"              db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	AccountID      int64     `json:"account_id"      db:"account_id"      gorm:"column:account_id;not null;index"`
	Account        *User     `json:"-"                                    gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:CASCADE"`
	CounterpartyID *int64    `json:"counterparty_id" db:"counterparty_id" gorm:"column:counterparty_id;index"`
	ListingID      *int64    `json:"listing_id"      db:"listing_id"      gorm:"column:listing_id;index"`
	DonationID     *int64    `json:"donation_id"     db:"donation_id"     gorm:"column:donation_id;index"`
	Amount         uint      `json:"amount"          db:"amount"          gorm:"column:amount;not null"`
	Type           string    `json:"type"            db:"type"            gorm:"column:type;not null"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionFilter controls per-account history queries.
type TransactionFilter struct {
	AccountID *int64
	Type      *string // "credit" or "debit"
	ListingID *int64
	Limit     int
	Offset    int
	Desc      bool
}
