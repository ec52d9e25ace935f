package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

type LoanRepository interface {
	Create(ctx context.Context, l *entity.Loan) error
	GetByID(ctx context.Context, id int64) (*entity.Loan, error)
	List(ctx context.Context) ([]entity.Loan, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.Loan, error)
	// ListOverdue returns active loans whose due date is before now.
	ListOverdue(ctx context.Context, now time.Time) ([]entity.Loan, error)
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	CountActiveByAuthor(ctx context.Context, authorID int64) (int, error)
	// MarkReturned sets the returned date of an active loan.
	// ErrPreconditionFailed when the loan was already returned.
	MarkReturned(ctx context.Context, id int64, at time.Time) error
	// ExtendDue moves the due date from -> to on an active loan whose due
	// date still equals from. ErrPreconditionFailed otherwise.
	ExtendDue(ctx context.Context, id int64, from, to time.Time) error
	// DeleteByUser and DeleteByAuthor remove returned loans only; active
	// loans are never deleted.
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteByAuthor(ctx context.Context, authorID int64) error
}
