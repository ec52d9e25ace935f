package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/go-library-management/pkg/helpers"
)

var ErrNotConfigured = errors.New("gcs not configured")

// CoverStore uploads book cover images to a GCS bucket.
type CoverStore struct {
	client *storage.Client
	bucket string
}

func NewCoverStore(client *storage.Client, bucket string) *CoverStore {
	return &CoverStore{client: client, bucket: bucket}
}

// Upload writes r under covers/<bookID>/<uuid><ext> and returns its public URL.
func (s *CoverStore) Upload(ctx context.Context, bookID int64, filename, contentType string, r io.Reader) (string, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return "", ErrNotConfigured
	}
	return helpers.UploadObject(ctx, s.client, s.bucket, CoverObjectPath(bookID, uuid.NewString(), filename), contentType, r)
}

func CoverObjectPath(bookID int64, id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.ToSlash(filepath.Join("covers", strconv.FormatInt(bookID, 10), id+ext))
}
