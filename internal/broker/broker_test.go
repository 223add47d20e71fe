package broker

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkeremcifci/CloudDrive/internal/models"
)

type fakeStore struct {
	deleted          []string
	deleteErr        error
	lastKey          string
	lastContentType  string
	lastDisposition  string
	lastResponseType string
}

func (f *fakeStore) PresignPut(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	f.lastKey = key
	f.lastContentType = contentType
	return "https://bucket.test/" + key + "?sig=put", nil
}

func (f *fakeStore) PresignGet(_ context.Context, key, disposition, responseType string, _ time.Duration) (string, error) {
	f.lastKey = key
	f.lastDisposition = disposition
	f.lastResponseType = responseType
	return "https://bucket.test/" + key + "?sig=get", nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	// Deleting an absent key succeeds, mirroring the object store.
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeLinks struct {
	links map[string]*models.ShareLink
	views int
}

func (f *fakeLinks) LinkByToken(_ context.Context, token string) (*models.ShareLink, error) {
	link, ok := f.links[token]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

func (f *fakeLinks) AddView(_ context.Context, _ uuid.UUID) error {
	f.views++
	return nil
}

func newTestBroker(store *fakeStore, links *fakeLinks) *Broker {
	if links == nil {
		links = &fakeLinks{links: map[string]*models.ShareLink{}}
	}
	return New(store, links, zap.NewNop())
}

func TestUploadIntentKeyPattern(t *testing.T) {
	store := &fakeStore{}
	b := newTestBroker(store, nil)

	grant, err := b.UploadIntent(context.Background(), "u1", "report.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^u1/\d+-report\.pdf$`), grant.Key)
	assert.NotEmpty(t, grant.URL)
	assert.Equal(t, "application/pdf", store.lastContentType)

	// The key it handed out passes its own ownership check, and only
	// for the caller that minted it.
	_, err = b.DownloadIntent(context.Background(), "u1", grant.Key, "")
	assert.NoError(t, err)
	_, err = b.DownloadIntent(context.Background(), "u2", grant.Key, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUploadIntentValidation(t *testing.T) {
	b := newTestBroker(&fakeStore{}, nil)

	_, err := b.UploadIntent(context.Background(), "", "a.txt", "text/plain")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = b.UploadIntent(context.Background(), "u1", "", "text/plain")
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = b.UploadIntent(context.Background(), "u1", "a.txt", "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestUploadIntentStripsPathFromName(t *testing.T) {
	store := &fakeStore{}
	b := newTestBroker(store, nil)

	grant, err := b.UploadIntent(context.Background(), "u1", "../../u2/evil.sh", "text/plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(grant.Key, "u1/"))
	assert.NotContains(t, grant.Key, "..")
}

func TestOwnsKey(t *testing.T) {
	cases := []struct {
		caller string
		key    string
		want   bool
	}{
		{"u1", "u1/123-report.pdf", true},
		{"user1", "user10/123-x.pdf", false}, // prefix must stop at the separator
		{"user10", "user10/123-x.pdf", true},
		{"u1", "u2/123-x.pdf", false},
		{"U1", "u1/123-x.pdf", false}, // case-sensitive
		{"u1", "u1", false},
		{"u1", "u1/", false},
		{"u1", "u1/../u2/x.pdf", false},
		{"u1", "u1//x.pdf", false},
		{"u1", "u1/./x.pdf", false},
		{"", "u1/x.pdf", false},
		{"u1/u2", "u1/u2/x.pdf", false}, // identity may not contain a separator
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OwnsKey(tc.caller, tc.key), "caller=%q key=%q", tc.caller, tc.key)
	}
}

func TestDownloadIntentDisposition(t *testing.T) {
	store := &fakeStore{}
	b := newTestBroker(store, nil)

	// No display name: inline rendering, nothing overridden.
	_, err := b.DownloadIntent(context.Background(), "u1", "u1/1-pic.png", "")
	require.NoError(t, err)
	assert.Empty(t, store.lastDisposition)
	assert.Empty(t, store.lastResponseType)

	// Display name: forced attachment with a generic binary type.
	_, err = b.DownloadIntent(context.Background(), "u1", "u1/1-pic.png", "pic.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.lastDisposition, "attachment; "))
	assert.Contains(t, store.lastDisposition, `filename="pic.png"`)
	assert.Equal(t, "application/octet-stream", store.lastResponseType)
}

func TestDownloadIntentEncodesNonASCIINames(t *testing.T) {
	store := &fakeStore{}
	b := newTestBroker(store, nil)

	_, err := b.DownloadIntent(context.Background(), "u1", "u1/1-x", "résumé ö.pdf")
	require.NoError(t, err)
	assert.Contains(t, store.lastDisposition, "filename*=UTF-8''r%C3%A9sum%C3%A9%20%C3%B6.pdf")
	// The plain filename parameter stays ASCII-only.
	assert.Contains(t, store.lastDisposition, `filename="r_sum_ _.pdf"`)
}

func TestDeleteOwnershipAndIdempotence(t *testing.T) {
	store := &fakeStore{}
	b := newTestBroker(store, nil)

	err := b.Delete(context.Background(), "u2", "u1/1-x.pdf")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.deleted)

	// Deleting the same key twice succeeds both times.
	require.NoError(t, b.Delete(context.Background(), "u1", "u1/1-x.pdf"))
	require.NoError(t, b.Delete(context.Background(), "u1", "u1/1-x.pdf"))
	assert.Equal(t, []string{"u1/1-x.pdf", "u1/1-x.pdf"}, store.deleted)
}

func TestDeleteUpstreamFailureSurfaces(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("connection reset")}
	b := newTestBroker(store, nil)

	err := b.Delete(context.Background(), "u1", "u1/1-x.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestPublicDownloadAlwaysAttachment(t *testing.T) {
	file := models.File{
		ID:         uuid.New(),
		Name:       "vacation.png",
		Size:       2048,
		MimeType:   "image/png",
		StorageKey: "u1/1-vacation.png",
	}
	links := &fakeLinks{links: map[string]*models.ShareLink{
		"tok": {ID: uuid.New(), Token: "tok", ExpiresAt: time.Now().Add(time.Hour), File: file},
	}}
	store := &fakeStore{}
	b := newTestBroker(store, links)

	grant, err := b.PublicDownloadIntent(context.Background(), "tok")
	require.NoError(t, err)

	// Even an image is forced into a download on the public path.
	assert.True(t, strings.HasPrefix(store.lastDisposition, "attachment; "))
	assert.Contains(t, store.lastDisposition, `filename="vacation.png"`)
	assert.Equal(t, "application/octet-stream", store.lastResponseType)

	assert.Equal(t, FileInfo{Name: "vacation.png", Size: 2048, MimeType: "image/png"}, grant.File)
	assert.Equal(t, 1, links.views)
}

func TestPublicDownloadInvalidToken(t *testing.T) {
	b := newTestBroker(&fakeStore{}, nil)

	_, err := b.PublicDownloadIntent(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredLink)

	_, err = b.PublicDownloadIntent(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPublicDownloadExpiredToken(t *testing.T) {
	now := time.Now()
	links := &fakeLinks{links: map[string]*models.ShareLink{
		"tok": {ID: uuid.New(), Token: "tok", ExpiresAt: now.Add(-time.Second), File: models.File{Name: "x"}},
	}}
	store := &fakeStore{}
	b := newTestBroker(store, links)
	b.validator.now = func() time.Time { return now }

	_, err := b.PublicDownloadIntent(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredLink)
	assert.Zero(t, links.views)
	assert.Empty(t, store.lastKey)
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"upload", "download", "delete", "public_download"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.Equal(t, Action(s), a)
	}

	_, err := ParseAction("format_disk")
	assert.ErrorIs(t, err, ErrBadRequest)
}
