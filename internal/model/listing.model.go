package model

import (
	"errors"
	"time"
)

// Listing is a purchasable or collectible marketplace entry. Price zero means
// a free collection; price above zero means a sale settled through the
// payment provider. Credits is the ledger value transferred to the owner on
// settlement regardless of kind.
type Listing struct {
	ID          int64     `json:"id"           db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	DonationID  *int64    `json:"donation_id"  db:"donation_id"  gorm:"column:donation_id;index"`
	OwnerID     int64     `json:"owner_id"     db:"owner_id"     gorm:"column:owner_id;not null;index"`
	Owner       *User     `json:"-"                               gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
	Title       string    `json:"title"        db:"title"        gorm:"column:title;not null"`
	Category    string    `json:"category"     db:"category"     gorm:"column:category;not null;index"`
	Price       uint      `json:"price"        db:"price"        gorm:"column:price;not null;default:0"`
	Credits     uint      `json:"credits"      db:"credits"      gorm:"column:credits;not null"`
	IsAvailable bool      `json:"is_available" db:"is_available" gorm:"column:is_available;not null;default:true;index"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (Listing) TableName() string { return "listings" }

// IsCollection reports whether settling the listing involves no payment.
func (l *Listing) IsCollection() bool { return l.Price == 0 }

// ListingCreateRequest is the input for a direct business listing.
type ListingCreateRequest struct {
	OwnerID  int64
	Title    string
	Category string
	Price    uint
	Credits  uint
}

func (p ListingCreateRequest) Validate() error {
	if p.OwnerID == 0 {
		return errors.New("owner_id is required")
	}
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.Credits == 0 {
		return errors.New("credits is required")
	}
	return nil
}

// ListingFilter controls ListAvailable queries.
type ListingFilter struct {
	OwnerID  *int64
	Category *string
	MinPrice *uint
	MaxPrice *uint
	Limit    int
	Offset   int
	Desc     bool // most-recent-first for dashboards
}
