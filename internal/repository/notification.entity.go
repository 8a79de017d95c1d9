package repository

import (
	"time"

	"github.com/givecycle/marketplace/internal/model"
)

type NotificationEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64     `db:"user_id"      gorm:"column:user_id;not null;index"`
	Kind        string    `db:"kind"         gorm:"column:kind;not null;index"`
	ReferenceID int64     `db:"reference_id" gorm:"column:reference_id;not null"`
	CreatedAt   time.Time `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		ID:          m.ID,
		UserID:      m.UserID,
		Kind:        m.Kind,
		ReferenceID: m.ReferenceID,
		CreatedAt:   m.CreatedAt,
	}
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:          e.ID,
		UserID:      e.UserID,
		Kind:        e.Kind,
		ReferenceID: e.ReferenceID,
		CreatedAt:   e.CreatedAt,
	}
}

func toNotificationModels(entities []*NotificationEntity) []*model.Notification {
	if entities == nil {
		return nil
	}
	models := make([]*model.Notification, len(entities))
	for i, e := range entities {
		models[i] = toNotificationModel(e)
	}
	return models
}
