package models

import (
	"time"

	"github.com/google/uuid"
)

type ShareLink struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"` // secure random token
	FileID    uuid.UUID `json:"fileId" gorm:"type:uuid;index;not null"`
	CreatorID uuid.UUID `json:"creatorId" gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	Views     int64     `json:"views" gorm:"default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	File File `json:"file" gorm:"foreignKey:FileID"`
}
