package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mkeremcifci/CloudDrive/internal/api/middleware"
	"github.com/mkeremcifci/CloudDrive/internal/broker"
	"github.com/mkeremcifci/CloudDrive/internal/models"
	"github.com/mkeremcifci/CloudDrive/internal/repositories"
	"github.com/mkeremcifci/CloudDrive/internal/utils"
)

// FilesHandler owns the metadata side of the drive: the folder tree,
// upload completion, rename/move, and recursive deletion.
type FilesHandler struct {
	Broker *broker.Broker
	Logger *zap.Logger
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.UserID(r))
	if err != nil {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/files?parent=<id>
// List godoc
// @Summary List folder contents
// @Description Returns the records directly under the given parent folder, or root-level records when parent is omitted.
// @Tags Files
// @Produce json
// @Param parent query string false "Parent folder id"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/files [get]
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var parent *uuid.UUID
	if p := r.URL.Query().Get("parent"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: "Invalid parent id",
			})
			return
		}
		parent = &id
	}

	files, err := repositories.ListChildren(r.Context(), owner, parent)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database query failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Files retrieved successfully",
		Data:    map[string]any{"files": files},
	})
}

// POST /api/v1/files/folder
func (h *FilesHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.Name == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	parent, ok := h.resolveParent(w, r, owner, input.ParentID)
	if !ok {
		return
	}

	folder := models.File{
		OwnerID:  owner,
		Name:     input.Name,
		Size:     0,
		MimeType: models.FolderMimeType,
		// Folders occupy no object, but the key column is unique so
		// every record still needs one of its own.
		StorageKey: fmt.Sprintf("%s/.folders/%s", owner, uuid.New()),
		ParentID:   parent,
	}

	if err := repositories.DB.WithContext(r.Context()).Create(&folder).Error; err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Folder created successfully",
		Data:    map[string]any{"file": folder},
	})
}

// POST /api/v1/files/complete
// CompleteUpload godoc
// @Summary Record a finished upload
// @Description Verifies the object landed in the bucket and inserts its metadata record.
// @Tags Files
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/files/complete [post]
func (h *FilesHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Key      string `json:"key"`
		Name     string `json:"name"`
		Size     int64  `json:"size"`
		MimeType string `json:"mimeType"`
		ParentID string `json:"parentId"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.Key == "" || input.Name == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	if input.MimeType == "" || input.MimeType == models.FolderMimeType || input.Size < 0 {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	// The key must sit inside the caller's namespace even though only
	// the broker hands keys out; a tampered key must not become a row.
	if !broker.OwnsKey(owner.String(), input.Key) {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Key does not belong to caller",
		})
		return
	}

	parent, ok := h.resolveParent(w, r, owner, input.ParentID)
	if !ok {
		return
	}

	exists, err := repositories.VerifyObjectExists(r.Context(), input.Key)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Object store check failed",
		})
		return
	}
	if !exists {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Object not found in storage",
		})
		return
	}

	file := models.File{
		OwnerID:    owner,
		Name:       input.Name,
		Size:       input.Size,
		MimeType:   input.MimeType,
		StorageKey: input.Key,
		ParentID:   parent,
	}
	if err := repositories.DB.WithContext(r.Context()).Create(&file).Error; err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Upload recorded successfully",
		Data:    map[string]any{"file": file},
	})
}

// PATCH /api/v1/files/{id}
func (h *FilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file id",
		})
		return
	}

	var input struct {
		Name     *string `json:"name"`
		ParentID *string `json:"parentId"` // "" moves to root
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || (input.Name == nil && input.ParentID == nil) {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	file, err := repositories.FileByID(r.Context(), owner, id)
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

	if input.Name != nil {
		if *input.Name == "" {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: "Name cannot be empty",
			})
			return
		}
		file.Name = *input.Name
	}

	if input.ParentID != nil {
		parent, ok := h.resolveParent(w, r, owner, *input.ParentID)
		if !ok {
			return
		}
		if parent != nil {
			// A folder must never move into its own subtree.
			owned, err := repositories.ListOwned(r.Context(), owner)
			if err != nil {
				utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
					Success: false,
					Message: "Database query failed",
				})
				return
			}
			for _, n := range repositories.Subtree(owned, file.ID) {
				if n.ID == *parent {
					utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
						Success: false,
						Message: "Cannot move a folder into itself",
					})
					return
				}
			}
		}
		file.ParentID = parent
	}

	if err := repositories.DB.WithContext(r.Context()).Save(file).Error; err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database update failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "File updated successfully",
		Data:    map[string]any{"file": file},
	})
}

// DELETE /api/v1/files/{id}
// Delete godoc
// @Summary Delete a file or folder tree
// @Description Removes the record and every descendant, cascades share links, and best-effort deletes the backing objects.
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/files/{id} [delete]
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file id",
		})
		return
	}

	owned, err := repositories.ListOwned(r.Context(), owner)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database query failed",
		})
		return
	}

	subtree := repositories.Subtree(owned, id)
	if len(subtree) == 0 {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "File not found",
		})
		return
	}

	// Rows first: once metadata is gone the blobs are unreachable, so a
	// blob that survives the best-effort pass is a storage leak, not a
	// security hole.
	if err := repositories.DeleteFileTree(r.Context(), owner, id); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database delete failed",
		})
		return
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for _, node := range subtree {
		if node.IsFolder() {
			continue
		}
		g.Go(func() error {
			if err := h.Broker.Delete(ctx, owner.String(), node.StorageKey); err != nil {
				h.Logger.Warn("failed to delete object, leaving orphaned blob",
					zap.String("key", node.StorageKey), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Deleted successfully",
		Data:    map[string]any{"deleted": len(subtree)},
	})
}

// resolveParent validates an optional parent id: it must parse, exist,
// belong to the caller, and be a folder. Returns (nil, true) for the
// root level.
func (h *FilesHandler) resolveParent(w http.ResponseWriter, r *http.Request, owner uuid.UUID, raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid parent id",
		})
		return nil, false
	}

	parent, err := repositories.FileByID(r.Context(), owner, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Parent folder not found",
		})
		return nil, false
	} else if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database query failed",
		})
		return nil, false
	}

	if !parent.IsFolder() {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Parent is not a folder",
		})
		return nil, false
	}
	return &id, true
}
