package repository

import (
	"github.com/givecycle/marketplace/internal/model"
)

type UserEntity struct {
	ID      int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `db:"name"    gorm:"column:name;not null"`
	Role    string `db:"role"    gorm:"column:role;not null"`
	Balance uint   `db:"balance" gorm:"column:balance;not null;default:0"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:      m.ID,
		Name:    m.Name,
		Role:    string(m.Role),
		Balance: m.Balance,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:      e.ID,
		Name:    e.Name,
		Role:    model.Role(e.Role),
		Balance: e.Balance,
	}
}
