package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rohanj-dev/skystash/internal/api/middleware"
	"github.com/rohanj-dev/skystash/internal/models"
	"github.com/rohanj-dev/skystash/internal/repositories"
	"github.com/rohanj-dev/skystash/internal/utils"
)

const (
	maxUploadSize      = 100 << 20 // 100 MB
	uploadKeyPrefix    = "uploads"
	downloadLinkExpiry = 15 * time.Minute
)

// BlobStorage is the slice of the object-store adapter the file handler
// needs; tests substitute a stub.
type BlobStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (*repositories.StoredObject, error)
	Delete(ctx context.Context, key string) error
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)
}

type FileHandler struct {
	files *repositories.FileStore
	blobs BlobStorage
}

func NewFileHandler(files *repositories.FileStore, blobs BlobStorage) *FileHandler {
	return &FileHandler{files: files, blobs: blobs}
}

// Upload godoc
// @Summary Upload a file
// @Description Stores the binary in the object store, then records metadata
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 500 {object} utils.Payload
// @Router /api/files/upload [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file upload form",
		})
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "No file provided",
		})
		return
	}
	defer src.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	category := models.CategoryForContentType(contentType)

	key := fmt.Sprintf("%s/%s_%s", uploadKeyPrefix, uuid.New(), filepath.Base(header.Filename))

	// Binary first: the metadata row is written only once the blob store has
	// confirmed persistence, so a failed upload leaves nothing behind.
	object, err := h.blobs.Upload(r.Context(), key, contentType, src)
	if err != nil {
		slog.Error("blob upload failed", "key", key, "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Upload failed",
		})
		return
	}

	file := models.File{
		OwnerID:   userID,
		Name:      header.Filename,
		URL:       object.URL,
		ObjectKey: object.Key,
		Size:      object.Size,
		Category:  category,
	}
	if err := h.files.CreateFile(r.Context(), &file); err != nil {
		slog.Error("failed to record file metadata", "key", key, "err", err)
		// The blob is already durable; remove it rather than leak an object
		// no metadata points at.
		if delErr := h.blobs.Delete(r.Context(), key); delErr != nil {
			slog.Error("failed to clean up orphaned blob", "key", key, "err", delErr)
		}
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Upload failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "File uploaded successfully",
		Data:    file,
	})
}

// ListByCategory returns a handler serving one category listing.
// @Summary List files in a category
// @Tags Files
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} utils.Payload
// @Router /api/files/{category} [get]
func (h *FileHandler) ListByCategory(category models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			unauthorizedResponse(w)
			return
		}

		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 10)

		files, err := h.files.ListFilesByCategory(r.Context(), userID, category, page, limit)
		if err != nil {
			slog.Error("failed to list files", "category", category, "err", err)
			utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
				Success: false,
				Message: "Failed to list files",
			})
			return
		}

		items := make([]map[string]any, 0, len(files))
		for _, f := range files {
			items = append(items, map[string]any{
				"id":   f.ID,
				"name": f.Name,
				"url":  f.URL,
				"size": f.Size,
				"date": f.CreatedAt,
			})
		}

		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Message: "Files retrieved successfully",
			Data:    items,
		})
	}
}

// Rename godoc
// @Summary Rename a file
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/files/{id}/rename [patch]
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w)
		return
	}

	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFoundResponse(w)
		return
	}

	var input struct {
		NewName string `json:"newName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	if strings.TrimSpace(input.NewName) == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "File name cannot be empty",
		})
		return
	}

	file, err := h.files.RenameFile(r.Context(), fileID, userID, input.NewName)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		notFoundResponse(w)
		return
	case err != nil:
		slog.Error("rename failed", "file", fileID, "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Rename failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "File renamed successfully",
		Data:    file,
	})
}

// Delete godoc
// @Summary Delete a file
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w)
		return
	}

	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFoundResponse(w)
		return
	}

	file, err := h.files.DeleteFile(r.Context(), fileID, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		notFoundResponse(w)
		return
	case err != nil:
		slog.Error("delete failed", "file", fileID, "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Delete failed",
		})
		return
	}

	// Metadata is the source of truth; the blob purge is best effort and a
	// failure here only leaks storage.
	if err := h.blobs.Delete(r.Context(), file.ObjectKey); err != nil {
		slog.Error("failed to delete blob object", "key", file.ObjectKey, "err", err)
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "File deleted successfully",
	})
}

// Download godoc
// @Summary Generate a presigned download URL
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/files/{id}/download [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w)
		return
	}

	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFoundResponse(w)
		return
	}

	file, err := h.files.FindFileByIDForOwner(r.Context(), fileID, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		notFoundResponse(w)
		return
	case err != nil:
		slog.Error("download lookup failed", "file", fileID, "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Download failed",
		})
		return
	}

	url, err := h.blobs.PresignDownload(r.Context(), file.ObjectKey, downloadLinkExpiry)
	if err != nil {
		slog.Error("failed to presign download", "key", file.ObjectKey, "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to generate download URL",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Download URL generated successfully",
		Data: map[string]any{
			"url":      url,
			"filename": file.Name,
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func notFoundResponse(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
		Success: false,
		Message: "File not found",
	})
}

func unauthorizedResponse(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Unauthorized",
	})
}
