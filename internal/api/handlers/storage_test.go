package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkeremcifci/CloudDrive/internal/broker"
	"github.com/mkeremcifci/CloudDrive/internal/config"
	"github.com/mkeremcifci/CloudDrive/internal/models"
)

type stubStore struct {
	deleted []string
}

func (s *stubStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key + "?sig=put", nil
}

func (s *stubStore) PresignGet(_ context.Context, key, _, _ string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key + "?sig=get", nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type stubLinks struct {
	links map[string]*models.ShareLink
}

func (s *stubLinks) LinkByToken(_ context.Context, token string) (*models.ShareLink, error) {
	link, ok := s.links[token]
	if !ok {
		return nil, broker.ErrLinkNotFound
	}
	return link, nil
}

func (s *stubLinks) AddView(_ context.Context, _ uuid.UUID) error { return nil }

func newTestHandler(links *stubLinks) (*StorageHandler, *stubStore) {
	store := &stubStore{}
	if links == nil {
		links = &stubLinks{links: map[string]*models.ShareLink{}}
	}
	b := broker.New(store, links, zap.NewNop())
	return &StorageHandler{Broker: b, Logger: zap.NewNop()}, store
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &Claims{
		UserID:   userID,
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Envs.JWTSecret))
	require.NoError(t, err)
	return signed
}

func postStorage(h *StorageHandler, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/storage", strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestStorageUnknownAction(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postStorage(h, `{"action":"copy"}`, signToken(t, uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "unknown action")
}

func TestStorageRejectsMissingCredentials(t *testing.T) {
	h, _ := newTestHandler(nil)

	for _, action := range []string{"upload", "download", "delete"} {
		rec := postStorage(h, `{"action":"`+action+`","fileName":"a","fileType":"b","key":"u1/1-a"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "action %s", action)
	}
}

func TestStorageUploadDownloadRoundTrip(t *testing.T) {
	h, _ := newTestHandler(nil)
	owner := uuid.NewString()
	stranger := uuid.NewString()

	rec := postStorage(h, `{"action":"upload","fileName":"report.pdf","fileType":"application/pdf"}`, signToken(t, owner))
	require.Equal(t, http.StatusOK, rec.Code)

	var grant broker.UploadGrant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grant))
	assert.True(t, strings.HasPrefix(grant.Key, owner+"/"))
	assert.NotEmpty(t, grant.URL)

	body, _ := json.Marshal(map[string]string{"action": "download", "key": grant.Key})

	rec = postStorage(h, string(body), signToken(t, owner))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Identical request under another identity is refused.
	rec = postStorage(h, string(body), signToken(t, stranger))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "unauthorized", errBody["error"])
}

func TestStorageDelete(t *testing.T) {
	h, store := newTestHandler(nil)
	owner := uuid.NewString()

	body, _ := json.Marshal(map[string]string{"action": "delete", "key": owner + "/1-a.txt"})
	rec := postStorage(h, string(body), signToken(t, owner))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["success"])
	assert.Equal(t, []string{owner + "/1-a.txt"}, store.deleted)
}

func TestStoragePublicDownloadIsAnonymous(t *testing.T) {
	file := models.File{
		Name:       "photo.jpg",
		Size:       123,
		MimeType:   "image/jpeg",
		StorageKey: "u1/1-photo.jpg",
	}
	links := &stubLinks{links: map[string]*models.ShareLink{
		"tok": {ID: uuid.New(), Token: "tok", ExpiresAt: time.Now().Add(time.Hour), File: file},
	}}
	h, _ := newTestHandler(links)

	rec := postStorage(h, `{"action":"public_download","token":"tok"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var grant broker.PublicGrant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grant))
	assert.NotEmpty(t, grant.URL)
	assert.Equal(t, "photo.jpg", grant.File.Name)
	assert.Equal(t, int64(123), grant.File.Size)
	assert.Equal(t, "image/jpeg", grant.File.MimeType)
}

func TestStoragePublicDownloadInvalidToken(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postStorage(h, `{"action":"public_download","token":"bogus"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// A generic message only: nothing about whether the file exists.
	assert.Equal(t, "invalid or expired link", body["error"])
}

func TestStorageRejectsMalformedBody(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postStorage(h, `{"action":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
