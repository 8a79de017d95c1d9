package model

import "time"

// Notification kinds written by the notifier when it consumes store events.
const (
	NotificationDonationApproved = "donation_approved"
	NotificationDonationRejected = "donation_rejected"
	NotificationListingSold      = "listing_sold"
)

type Notification struct {
	ID          int64     `json:"id"           db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64     `json:"user_id"      db:"user_id"      gorm:"column:user_id;not null;index"`
	Kind        string    `json:"kind"         db:"kind"         gorm:"column:kind;not null;index"`
	ReferenceID int64     `json:"reference_id" db:"reference_id" gorm:"column:reference_id;not null"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
