package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rohanj-dev/skystash/internal/models"
	"github.com/rohanj-dev/skystash/internal/repositories"
)

func newFileHandler(t *testing.T) (*FileHandler, *repositories.FileStore, *stubBlobStore) {
	t.Helper()

	files := repositories.NewFileStore(newTestDB(t))
	blobs := &stubBlobStore{}
	return NewFileHandler(files, blobs), files, blobs
}

func seedOwnedFile(t *testing.T, files *repositories.FileStore, owner uuid.UUID, name string, category models.Category, size int64) *models.File {
	t.Helper()

	file := &models.File{
		OwnerID:   owner,
		Name:      name,
		URL:       "https://cdn.test/uploads/" + name,
		ObjectKey: "uploads/" + name,
		Size:      size,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, files.CreateFile(t.Context(), file))
	return file
}

func TestUpload(t *testing.T) {
	h, files, blobs := newFileHandler(t)
	owner := uuid.New()

	body, contentType := multipartFile(t, "cat.png", "image/png", []byte("pretend-png-bytes"))
	req := authedRequest(t, http.MethodPost, "/api/files/upload", body, owner)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, blobs.uploaded, 1)

	var payload struct {
		Data models.File `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, owner, payload.Data.OwnerID)
	require.Equal(t, "cat.png", payload.Data.Name)
	require.Equal(t, models.CategoryImage, payload.Data.Category)
	// Size comes from the blob store, not the client.
	require.Equal(t, int64(len("pretend-png-bytes")), payload.Data.Size)

	listed, err := files.ListFilesByCategory(t.Context(), owner, models.CategoryImage, 1, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestUploadNoFile(t *testing.T) {
	h, _, blobs := newFileHandler(t)

	req := authedRequest(t, http.MethodPost, "/api/files/upload", strings.NewReader(""), uuid.New())
	req.Header.Set("Content-Type", "multipart/form-data; boundary=empty")

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, blobs.uploaded)
}

func TestUploadBlobFailureLeavesNoMetadata(t *testing.T) {
	h, files, blobs := newFileHandler(t)
	blobs.uploadErr = errors.New("bucket unreachable")
	owner := uuid.New()

	body, contentType := multipartFile(t, "cat.png", "image/png", []byte("bytes"))
	req := authedRequest(t, http.MethodPost, "/api/files/upload", body, owner)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	listed, err := files.ListFilesByCategory(t.Context(), owner, models.CategoryImage, 1, 10)
	require.NoError(t, err)
	require.Empty(t, listed, "no partial metadata after a failed blob upload")
}

func TestListByCategoryIsolation(t *testing.T) {
	h, files, _ := newFileHandler(t)

	userA := uuid.New()
	userB := uuid.New()
	seedOwnedFile(t, files, userA, "mine.png", models.CategoryImage, 10)
	seedOwnedFile(t, files, userB, "theirs.png", models.CategoryImage, 10)

	req := authedRequest(t, http.MethodGet, "/api/files/images?page=abc&limit=xyz", nil, userA)
	rec := httptest.NewRecorder()
	h.ListByCategory(models.CategoryImage)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, "mine.png", payload.Data[0]["name"])
}

func TestRenameHandler(t *testing.T) {
	h, files, _ := newFileHandler(t)
	owner := uuid.New()
	file := seedOwnedFile(t, files, owner, "old.pdf", models.CategoryDocument, 10)

	rename := func(userID, fileID uuid.UUID, body string) *httptest.ResponseRecorder {
		req := authedRequest(t, http.MethodPatch, "/api/files/"+fileID.String()+"/rename", strings.NewReader(body), userID)
		req.SetPathValue("id", fileID.String())
		rec := httptest.NewRecorder()
		h.Rename(rec, req)
		return rec
	}

	// Whitespace-only names are rejected without mutating the record.
	rec := rename(owner, file.ID, `{"newName":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := files.FindFileByIDForOwner(t.Context(), file.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "old.pdf", got.Name)

	rec = rename(owner, uuid.New(), `{"newName":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Another authenticated user cannot rename a file they do not own.
	rec = rename(uuid.New(), file.ID, `{"newName":"hijacked"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = rename(owner, file.ID, `{"newName":"new.pdf"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err = files.FindFileByIDForOwner(t.Context(), file.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "new.pdf", got.Name)
}

func TestDeleteHandler(t *testing.T) {
	h, files, blobs := newFileHandler(t)
	owner := uuid.New()
	file := seedOwnedFile(t, files, owner, "gone.pdf", models.CategoryDocument, 10)

	del := func(userID, fileID uuid.UUID) *httptest.ResponseRecorder {
		req := authedRequest(t, http.MethodDelete, "/api/files/"+fileID.String(), nil, userID)
		req.SetPathValue("id", fileID.String())
		rec := httptest.NewRecorder()
		h.Delete(rec, req)
		return rec
	}

	// Foreign users cannot delete the file.
	require.Equal(t, http.StatusNotFound, del(uuid.New(), file.ID).Code)
	require.Empty(t, blobs.deleted)

	require.Equal(t, http.StatusOK, del(owner, file.ID).Code)
	require.Equal(t, []string{"uploads/gone.pdf"}, blobs.deleted)

	// Idempotent from the client's perspective: the second delete is a 404.
	require.Equal(t, http.StatusNotFound, del(owner, file.ID).Code)
}

func TestDownloadHandler(t *testing.T) {
	h, files, _ := newFileHandler(t)
	owner := uuid.New()
	file := seedOwnedFile(t, files, owner, "cat.png", models.CategoryImage, 10)

	req := authedRequest(t, http.MethodGet, "/api/files/"+file.ID.String()+"/download", nil, owner)
	req.SetPathValue("id", file.ID.String())
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "https://signed.test/uploads/cat.png", payload.Data["url"])
	require.Equal(t, "cat.png", payload.Data["filename"])

	// Foreign users get a 404, not a signed URL.
	req = authedRequest(t, http.MethodGet, "/api/files/"+file.ID.String()+"/download", nil, uuid.New())
	req.SetPathValue("id", file.ID.String())
	rec = httptest.NewRecorder()
	h.Download(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
