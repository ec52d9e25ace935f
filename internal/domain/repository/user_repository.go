package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// Create returns ErrDuplicate when the email is already registered.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	// LockByID row-locks the user for the rest of the transaction.
	// ErrNotFound when it does not exist.
	LockByID(ctx context.Context, id int64) error
	// Delete returns ErrReferenced while loans still point at the user.
	Delete(ctx context.Context, id int64) error
}
