package model

import (
	"errors"
	"time"
)

// DonationStatus is the lifecycle state of a donation. The only legal
// transitions are uploaded->approved and uploaded->rejected; approved and
// rejected are terminal.
type DonationStatus string

const (
	DonationStatusUploaded DonationStatus = "uploaded"
	DonationStatusApproved DonationStatus = "approved"
	DonationStatusRejected DonationStatus = "rejected"
)

// ReviewDecision is an admin's verdict on an uploaded donation.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

func (d ReviewDecision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type Donation struct {
	ID           int64          `json:"id"            db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	DonorID      int64          `json:"donor_id"      db:"donor_id"      gorm:"column:donor_id;not null;index"`
	Donor        *User          `json:"-"                                 gorm:"foreignKey:DonorID;references:ID;constraint:OnDelete:CASCADE"`
	Title        string         `json:"title"         db:"title"         gorm:"column:title;not null"`
	Category     string         `json:"category"      db:"category"      gorm:"column:category;not null;index"`
	Value        uint           `json:"value"         db:"value"         gorm:"column:value;not null"`
	Status       DonationStatus `json:"status"        db:"status"        gorm:"column:status;not null;index"`
	AIConfidence *float64       `json:"ai_confidence" db:"ai_confidence" gorm:"column:ai_confidence"` // advisory only
	CreatedAt    time.Time      `json:"created_at"    db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (Donation) TableName() string { return "donations" }

// DonationCreateRequest is the input for submitting a donation.
type DonationCreateRequest struct {
	DonorID  int64
	Title    string
	Category string
	Value    uint
}

func (p DonationCreateRequest) Validate() error {
	if p.DonorID == 0 {
		return errors.New("donor_id is required")
	}
	if p.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// DonationFilter controls List queries.
type DonationFilter struct {
	DonorID  *int64
	Statuses []DonationStatus // IN (...)
	Category *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	Desc     bool // order by created_at
}
