package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Fullname  string    `json:"fullname,omitempty" gorm:"not null"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	GoogleID  *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"createdAt,omitzero" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
