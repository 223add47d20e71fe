package broker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mkeremcifci/CloudDrive/internal/models"
)

var (
	ErrLinkNotFound = errors.New("share link not found")
	ErrLinkExpired  = errors.New("share link expired")
)

// LinkSource resolves share tokens against the metadata store.
// LinkByToken must return ErrLinkNotFound when no row matches and must
// populate the link's File association.
type LinkSource interface {
	LinkByToken(ctx context.Context, token string) (*models.ShareLink, error)
	AddView(ctx context.Context, id uuid.UUID) error
}

// Validator checks share tokens for existence and expiry. Expiry is
// compared against the validator's own clock at call time, not at lookup
// time; link granularity is hours, so the window between the two does
// not matter.
type Validator struct {
	links LinkSource
	now   func() time.Time
}

func NewValidator(links LinkSource) *Validator {
	return &Validator{links: links, now: time.Now}
}

// Validate resolves a token into its share link. A miss is definitive:
// there is no retry, and an expired row is reported without being
// deleted.
func (v *Validator) Validate(ctx context.Context, token string) (*models.ShareLink, error) {
	link, err := v.links.LinkByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if v.now().After(link.ExpiresAt) {
		return nil, ErrLinkExpired
	}
	return link, nil
}
