package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// PasswordHasher is the opaque one-way hash used for credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// JobPublisher puts a JSON job on the email queue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type BookCache interface {
	Get(ctx context.Context, id int64) (*entity.Book, bool, error)
	Set(ctx context.Context, b *entity.Book) error
	Invalidate(ctx context.Context, ids ...int64) error
}

type BookIndex interface {
	Index(ctx context.Context, b *entity.Book) error
	SearchTitleIDs(ctx context.Context, title string, size int) ([]int64, error)
	Delete(ctx context.Context, ids ...int64) error
}

type CoverUploader interface {
	Upload(ctx context.Context, bookID int64, filename, contentType string, r io.Reader) (string, error)
}

// SessionRevoker ends every login session of a user.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID int64) error
}

// Clock returns the current time. Services default to helpers.NowUTC.
type Clock func() time.Time
