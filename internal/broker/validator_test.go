package broker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkeremcifci/CloudDrive/internal/models"
)

func TestValidatorExpiryIsStrict(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	links := &fakeLinks{links: map[string]*models.ShareLink{
		"tok": {ID: uuid.New(), Token: "tok", ExpiresAt: expiry},
	}}
	v := NewValidator(links)

	// At the exact expiry instant the link still resolves.
	v.now = func() time.Time { return expiry }
	_, err := v.Validate(context.Background(), "tok")
	require.NoError(t, err)

	// One second past and it is gone, deterministically.
	v.now = func() time.Time { return expiry.Add(time.Second) }
	_, err = v.Validate(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestValidatorMissIsDefinitive(t *testing.T) {
	v := NewValidator(&fakeLinks{links: map[string]*models.ShareLink{}})

	_, err := v.Validate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestValidatorReturnsLinkDetails(t *testing.T) {
	file := models.File{Name: "doc.pdf", StorageKey: "u1/1-doc.pdf"}
	links := &fakeLinks{links: map[string]*models.ShareLink{
		"tok": {ID: uuid.New(), Token: "tok", ExpiresAt: time.Now().Add(time.Hour), File: file},
	}}
	v := NewValidator(links)

	link, err := v.Validate(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", link.File.Name)
	assert.Equal(t, "u1/1-doc.pdf", link.File.StorageKey)
}
