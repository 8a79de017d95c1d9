package model

import "time"

// Role is the closed set of account roles. Capability checks happen at the
// service boundary, not in handlers.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDonor       Role = "donor"
	RoleBusiness    Role = "business"
	RoleBeneficiary Role = "beneficiary"
)

// CanReview reports whether the role may approve or reject donations.
func (r Role) CanReview() bool {
	return r == RoleAdmin
}

// CanList reports whether the role may create marketplace listings directly.
func (r Role) CanList() bool {
	return r == RoleBusiness || r == RoleDonor
}

// CanPurchase reports whether the role may buy or collect listings.
func (r Role) CanPurchase() bool {
	return r != RoleAdmin
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleBusiness, RoleBeneficiary:
		return true
	}
	return false
}

type User struct {
	ID        int64     `json:"id"         db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `json:"name"       db:"name"       gorm:"column:name;not null"`
	Role      Role      `json:"role"       db:"role"       gorm:"column:role;not null"`
	Balance   uint      `json:"balance"    db:"balance"    gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
