package repository

import (
	"time"

	"github.com/givecycle/marketplace/internal/model"
)

type DonationEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	DonorID      int64     `db:"donor_id"      gorm:"column:donor_id;not null;index"`
	Title        string    `db:"title"         gorm:"column:title;not null"`
	Category     string    `db:"category"      gorm:"column:category;not null;index"`
	Value        uint      `db:"value"         gorm:"column:value;not null"`
	Status       string    `db:"status"        gorm:"column:status;not null;index"`
	AIConfidence *float64  `db:"ai_confidence" gorm:"column:ai_confidence"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (DonationEntity) TableName() string {
	return "donations"
}

func toDonationEntity(m *model.Donation) *DonationEntity {
	if m == nil {
		return nil
	}
	return &DonationEntity{
		ID:           m.ID,
		DonorID:      m.DonorID,
		Title:        m.Title,
		Category:     m.Category,
		Value:        m.Value,
		Status:       string(m.Status),
		AIConfidence: m.AIConfidence,
		CreatedAt:    m.CreatedAt,
	}
}

func toDonationModel(e *DonationEntity) *model.Donation {
	if e == nil {
		return nil
	}
	return &model.Donation{
		ID:           e.ID,
		DonorID:      e.DonorID,
		Title:        e.Title,
		Category:     e.Category,
		Value:        e.Value,
		Status:       model.DonationStatus(e.Status),
		AIConfidence: e.AIConfidence,
		CreatedAt:    e.CreatedAt,
	}
}

func toDonationModels(entities []*DonationEntity) []*model.Donation {
	if entities == nil {
		return nil
	}
	models := make([]*model.Donation, len(entities))
	for i, e := range entities {
		models[i] = toDonationModel(e)
	}
	return models
}
