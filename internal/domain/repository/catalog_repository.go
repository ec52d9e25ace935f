package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

type AuthorRepository interface {
	Create(ctx context.Context, a *entity.Author) error
	GetByID(ctx context.Context, id int64) (*entity.Author, error)
	List(ctx context.Context) ([]entity.Author, error)
	FindByLastName(ctx context.Context, lastName string) ([]entity.Author, error)
	// LockByID row-locks the author for the rest of the transaction.
	LockByID(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// BookRepository reads return books with Author populated.
type BookRepository interface {
	Create(ctx context.Context, b *entity.Book) error
	GetByID(ctx context.Context, id int64) (*entity.Book, error)
	List(ctx context.Context) ([]entity.Book, error)
	ListByIDs(ctx context.Context, ids []int64) ([]entity.Book, error)
	// SearchByTitle matches a case-insensitive substring.
	SearchByTitle(ctx context.Context, title string) ([]entity.Book, error)
	Count(ctx context.Context) (int, error)
	// DecrementAvailable takes one copy. ErrPreconditionFailed when none is left.
	DecrementAvailable(ctx context.Context, id int64) error
	// IncrementAvailable puts one copy back. ErrPreconditionFailed when the
	// book is already at its total.
	IncrementAvailable(ctx context.Context, id int64) error
	SetCoverURL(ctx context.Context, id int64, url string) error
	// LockByAuthor row-locks every book of the author so that no loan can
	// take or reference a copy until the transaction ends.
	LockByAuthor(ctx context.Context, authorID int64) error
	// DeleteByAuthor removes every book of the author and returns their ids.
	// ErrReferenced while loans still point at one of them.
	DeleteByAuthor(ctx context.Context, authorID int64) ([]int64, error)
}
