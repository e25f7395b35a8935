package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rohanj-dev/skystash/internal/api/middleware"
	"github.com/rohanj-dev/skystash/internal/config"
	"github.com/rohanj-dev/skystash/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", t.Name(), time.Now().UTC().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repositories.Migrate(db))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		Environment: "test",
		FrontendURL: "http://localhost:5173",
	}
}

// stubBlobStore records blob operations without talking to a real store.
type stubBlobStore struct {
	uploadErr error
	uploaded  []string
	deleted   []string
}

func (s *stubBlobStore) Upload(_ context.Context, key, _ string, body io.Reader) (*repositories.StoredObject, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	size, _ := io.Copy(io.Discard, body)
	s.uploaded = append(s.uploaded, key)
	return &repositories.StoredObject{
		Key:  key,
		URL:  "https://cdn.test/" + key,
		Size: size,
	}, nil
}

func (s *stubBlobStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubBlobStore) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.test/" + key, nil
}

// authedRequest builds a request already carrying an authenticated user id,
// as the auth middleware would.
func authedRequest(t *testing.T, method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// multipartFile encodes a single "file" form field with the given declared
// content type.
func multipartFile(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}
