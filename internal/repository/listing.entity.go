package repository

import (
	"time"

	"github.com/givecycle/marketplace/internal/model"
)

type ListingEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	DonationID  *int64    `db:"donation_id"  gorm:"column:donation_id;index"`
	OwnerID     int64     `db:"owner_id"     gorm:"column:owner_id;not null;index"`
	Title       string    `db:"title"        gorm:"column:title;not null"`
	Category    string    `db:"category"     gorm:"column:category;not null;index"`
	Price       uint      `db:"price"        gorm:"column:price;not null;default:0"`
	Credits     uint      `db:"credits"      gorm:"column:credits;not null"`
	IsAvailable bool      `db:"is_available" gorm:"column:is_available;not null;default:true;index"`
	CreatedAt   time.Time `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (ListingEntity) TableName() string {
	return "listings"
}

func toListingEntity(m *model.Listing) *ListingEntity {
	if m == nil {
		return nil
	}
	return &ListingEntity{
		ID:          m.ID,
		DonationID:  m.DonationID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Category:    m.Category,
		Price:       m.Price,
		Credits:     m.Credits,
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
	}
}

func toListingModel(e *ListingEntity) *model.Listing {
	if e == nil {
		return nil
	}
	return &model.Listing{
		ID:          e.ID,
		DonationID:  e.DonationID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Category:    e.Category,
		Price:       e.Price,
		Credits:     e.Credits,
		IsAvailable: e.IsAvailable,
		CreatedAt:   e.CreatedAt,
	}
}

func toListingModels(entities []*ListingEntity) []*model.Listing {
	if entities == nil {
		return nil
	}
	models := make([]*model.Listing, len(entities))
	for i, e := range entities {
		models[i] = toListingModel(e)
	}
	return models
}
