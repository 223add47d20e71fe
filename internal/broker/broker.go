package broker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultURLTTL is the lifetime of every signed URL the broker hands out.
// One hour bounds the blast radius of a leaked link while comfortably
// covering a normal transfer.
const DefaultURLTTL = time.Hour

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
	ErrInvalidOrExpiredLink = errors.New("invalid or expired link")
)

// Action enumerates the broker's operations.
type Action string

const (
	ActionUpload         Action = "upload"
	ActionDownload       Action = "download"
	ActionDelete         Action = "delete"
	ActionPublicDownload Action = "public_download"
)

// ParseAction maps a wire-level action string onto the enum.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionUpload, ActionDownload, ActionDelete, ActionPublicDownload:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrBadRequest, s)
	}
}

// ObjectStore is the slice of the object-storage API the broker needs:
// signed PUT/GET URLs and a synchronous, idempotent delete.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, key, disposition, responseType string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type UploadGrant struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type DownloadGrant struct {
	URL string `json:"url"`
}

type FileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type PublicGrant struct {
	URL  string   `json:"url"`
	File FileInfo `json:"file"`
}

// Broker mediates all object-store access. It is stateless: every request
// stands alone, so replicas need no coordination.
type Broker struct {
	store     ObjectStore
	links     LinkSource
	validator *Validator
	logger    *zap.Logger
	urlTTL    time.Duration
	now       func() time.Time
}

func New(store ObjectStore, links LinkSource, logger *zap.Logger) *Broker {
	return &Broker{
		store:     store,
		links:     links,
		validator: NewValidator(links),
		logger:    logger,
		urlTTL:    DefaultURLTTL,
		now:       time.Now,
	}
}

// UploadIntent issues a signed PUT URL for a fresh key under the caller's
// namespace. The key embeds a nanosecond timestamp so concurrent uploads
// can never collide, and its prefix alone proves ownership.
func (b *Broker) UploadIntent(ctx context.Context, caller, name, contentType string) (*UploadGrant, error) {
	if caller == "" {
		return nil, ErrUnauthorized
	}
	if name == "" || contentType == "" {
		return nil, fmt.Errorf("%w: fileName and fileType are required", ErrBadRequest)
	}

	key := fmt.Sprintf("%s/%d-%s", caller, b.now().UnixNano(), sanitizeName(name))
	url, err := b.store.PresignPut(ctx, key, contentType, b.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadGrant{URL: url, Key: key}, nil
}

// DownloadIntent issues a signed GET URL for a key the caller owns.
//
// With a display name the URL forces a "Save As" response: attachment
// disposition carrying the name and a generic binary content type, so the
// browser cannot sniff the body into something executable. Without one
// the object is served as stored, for inline previews.
func (b *Broker) DownloadIntent(ctx context.Context, caller, key, displayName string) (*DownloadGrant, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrBadRequest)
	}
	if !OwnsKey(caller, key) {
		return nil, ErrUnauthorized
	}

	var disposition, responseType string
	if displayName != "" {
		disposition = attachmentDisposition(displayName)
		responseType = "application/octet-stream"
	}

	url, err := b.store.PresignGet(ctx, key, disposition, responseType, b.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &DownloadGrant{URL: url}, nil
}

// Delete removes the object behind a key the caller owns. A key that no
// longer exists in the store is not an error, so retries are safe.
func (b *Broker) Delete(ctx context.Context, caller, key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrBadRequest)
	}
	if !OwnsKey(caller, key) {
		return ErrUnauthorized
	}
	if err := b.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PublicDownloadIntent resolves an anonymous share token into a signed
// GET URL. Public links are always explicit downloads, never inline, and
// an invalid token yields nothing beyond a generic failure.
func (b *Broker) PublicDownloadIntent(ctx context.Context, token string) (*PublicGrant, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrBadRequest)
	}

	link, err := b.validator.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) || errors.Is(err, ErrLinkExpired) {
			return nil, ErrInvalidOrExpiredLink
		}
		return nil, fmt.Errorf("validate link: %w", err)
	}

	url, err := b.store.PresignGet(ctx, link.File.StorageKey,
		attachmentDisposition(link.File.Name), "application/octet-stream", b.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign public download: %w", err)
	}

	if err := b.links.AddView(ctx, link.ID); err != nil {
		b.logger.Warn("failed to bump share link view counter",
			zap.String("token", token), zap.Error(err))
	}

	return &PublicGrant{
		URL: url,
		File: FileInfo{
			Name:     link.File.Name,
			Size:     link.File.Size,
			MimeType: link.File.MimeType,
		},
	}, nil
}

// OwnsKey reports whether key lives under the caller's namespace. The
// match is exact and terminated by the path separator, so "user1" can
// never claim a key under "user10/". Keys with empty or dot segments are
// rejected outright: the object store has no authorization of its own,
// and a traversal segment must never reach a signed URL.
func OwnsKey(caller, key string) bool {
	if caller == "" || strings.ContainsRune(caller, '/') {
		return false
	}
	rest, ok := strings.CutPrefix(key, caller+"/")
	if !ok || rest == "" {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "/" || name == "." || name == ".." {
		return "file"
	}
	return name
}
