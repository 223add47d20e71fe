package models

import (
	"time"

	"github.com/google/uuid"
)

// FolderMimeType marks a record as a folder. It is not a real MIME type,
// so it can never collide with an uploaded file's content type.
const FolderMimeType = "application/x-directory"

type File struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	OwnerID    uuid.UUID  `json:"ownerId" gorm:"type:uuid;index;not null"`
	Name       string     `json:"name" gorm:"not null"`
	Size       int64      `json:"size" gorm:"not null"` // bytes; always 0 for folders
	MimeType   string     `json:"mimeType" gorm:"not null"`
	StorageKey string     `json:"storageKey" gorm:"uniqueIndex;not null"` // object key, synthetic for folders
	ParentID   *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`        // nil = root level
	CreatedAt  time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	Children []File      `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Links    []ShareLink `json:"-" gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE"`
}

// IsFolder reports whether the record is a folder node.
func (f *File) IsFolder() bool {
	return f.MimeType == FolderMimeType
}
