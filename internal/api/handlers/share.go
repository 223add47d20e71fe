package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mkeremcifci/CloudDrive/internal/models"
	"github.com/mkeremcifci/CloudDrive/internal/repositories"
	"github.com/mkeremcifci/CloudDrive/internal/utils"

	"github.com/google/uuid"
)

const (
	defaultShareExpiry = 24 * time.Hour
	maxShareExpiry     = 7 * 24 * time.Hour
)

// ShareHandler creates and lists public share links. Redeeming a token
// is the broker's public_download action on the storage endpoint.
type ShareHandler struct {
	Logger *zap.Logger
}

// POST /api/v1/share
// Create godoc
// @Summary Create a public share link
// @Description Issues a short random token for one of the caller's files with an absolute expiry.
// @Tags Share
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload "Share link created"
// @Failure 400 {object} utils.Payload "Invalid input"
// @Failure 404 {object} utils.Payload "File not found"
// @Router /api/v1/share [post]
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	creator, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		FileID         string `json:"fileId"`
		ExpiresInHours int    `json:"expiresInHours"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.FileID == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	fileID, err := uuid.Parse(input.FileID)
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file id",
		})
		return
	}

	file, err := repositories.FileByID(r.Context(), creator, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "File not found",
		})
		return
	} else if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database query failed",
		})
		return
	}

	if file.IsFolder() {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Folders cannot be shared",
		})
		return
	}

	expiry := defaultShareExpiry
	if input.ExpiresInHours > 0 {
		expiry = time.Duration(input.ExpiresInHours) * time.Hour
		if expiry > maxShareExpiry {
			expiry = maxShareExpiry
		}
	}

	token, err := utils.GenerateSecureToken(utils.ShareTokenBytes)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to create share token",
		})
		return
	}

	link := models.ShareLink{
		Token:     token,
		FileID:    file.ID,
		CreatorID: creator,
		ExpiresAt: time.Now().Add(expiry),
	}
	if err := repositories.CreateShareLink(r.Context(), &link); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Share link created successfully",
		Data: map[string]any{
			"token":     link.Token,
			"expiresAt": link.ExpiresAt,
		},
	})
}

// GET /api/v1/share
// List godoc
// @Summary List the caller's share links
// @Tags Share
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/share [get]
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	creator, ok := callerID(w, r)
	if !ok {
		return
	}

	links, err := repositories.ListShareLinks(r.Context(), creator)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database query failed",
		})
		return
	}

	out := make([]map[string]any, 0, len(links))
	for _, l := range links {
		out = append(out, map[string]any{
			"token":     l.Token,
			"fileName":  l.File.Name,
			"fileId":    l.FileID,
			"expiresAt": l.ExpiresAt,
			"views":     l.Views,
			"createdAt": l.CreatedAt,
		})
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Share links retrieved successfully",
		Data:    map[string]any{"links": out},
	})
}
