package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkeremcifci/CloudDrive/internal/api/middleware"
	"github.com/mkeremcifci/CloudDrive/internal/broker"
	"github.com/mkeremcifci/CloudDrive/internal/utils"
)

// StorageHandler exposes the access broker over HTTP: one endpoint, an
// enumerated action field, and a fixed wire contract.
type StorageHandler struct {
	Broker *broker.Broker
	Logger *zap.Logger
}

type storageRequest struct {
	Action   string `json:"action"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Key      string `json:"key"`
	Token    string `json:"token"`
}

// POST /api/v1/storage
// Handle godoc
// @Summary Request a storage capability
// @Description Dispatches on action: upload, download, delete (bearer auth) or public_download (anonymous share token).
// @Tags Storage
// @Accept json
// @Produce json
// @Param request body storageRequest true "Storage intent"
// @Success 200 {object} broker.UploadGrant
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/storage [post]
func (h *StorageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req storageRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	action, err := broker.ParseAction(req.Action)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()

	// The public path carries no identity; everything else must.
	if action == broker.ActionPublicDownload {
		grant, err := h.Broker.PublicDownloadIntent(ctx, req.Token)
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, grant)
		return
	}

	caller, err := middleware.Identity(r)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch action {
	case broker.ActionUpload:
		grant, err := h.Broker.UploadIntent(ctx, caller, req.FileName, req.FileType)
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, grant)

	case broker.ActionDownload:
		grant, err := h.Broker.DownloadIntent(ctx, caller, req.Key, req.FileName)
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, grant)

	case broker.ActionDelete:
		if err := h.Broker.Delete(ctx, caller, req.Key); err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})

	case broker.ActionPublicDownload:
		// handled above; listed to keep the switch exhaustive
	}
}

// writeError maps broker failures onto the endpoint's wire contract.
// Upstream detail stays out of the response body so the public path
// cannot leak whether a file exists.
func (h *StorageHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, broker.ErrUnauthorized):
		utils.JSONError(w, http.StatusBadRequest, "unauthorized")
	case errors.Is(err, broker.ErrInvalidOrExpiredLink):
		utils.JSONError(w, http.StatusBadRequest, "invalid or expired link")
	case errors.Is(err, broker.ErrBadRequest):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("storage intent failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
	}
}
