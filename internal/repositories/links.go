package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkeremcifci/CloudDrive/internal/broker"
	"github.com/mkeremcifci/CloudDrive/internal/models"
)

// LinkStore backs the broker's link validation with the share_links
// table. It satisfies broker.LinkSource.
type LinkStore struct{}

func (LinkStore) LinkByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := DB.WithContext(ctx).Preload("File").
		Where("token = ?", token).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, broker.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (LinkStore) AddView(ctx context.Context, id uuid.UUID) error {
	return DB.WithContext(ctx).Model(&models.ShareLink{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// CreateShareLink inserts a new link row for a file the creator owns.
func CreateShareLink(ctx context.Context, link *models.ShareLink) error {
	return DB.WithContext(ctx).Create(link).Error
}

// ListShareLinks returns every link the user has created, newest first.
func ListShareLinks(ctx context.Context, creator uuid.UUID) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := DB.WithContext(ctx).Preload("File").
		Where("creator_id = ?", creator).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
