package handlers

import (
	"context"
	"io"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
)

// The interfaces below are the slices of the application services the
// handlers call. *application.XService satisfies each of them.

type AuthService interface {
	Login(ctx context.Context, email, password string) (*application.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*application.Session, error)
	Logout(ctx context.Context, p entity.Principal) error
}

type AuthorService interface {
	Create(ctx context.Context, p entity.Principal, in application.CreateAuthorInput) (*entity.Author, error)
	Get(ctx context.Context, p entity.Principal, id int64) (*entity.Author, error)
	List(ctx context.Context, p entity.Principal) ([]entity.Author, error)
	FindByLastName(ctx context.Context, p entity.Principal, lastName string) ([]entity.Author, error)
	Delete(ctx context.Context, p entity.Principal, id int64) error
}

type BookService interface {
	Create(ctx context.Context, p entity.Principal, in application.CreateBookInput) (*entity.Book, error)
	List(ctx context.Context, p entity.Principal) (*application.BookListing, error)
	Get(ctx context.Context, p entity.Principal, id int64) (*entity.Book, policy.Tier, error)
	SearchByTitle(ctx context.Context, p entity.Principal, title string) (*application.BookListing, error)
	UploadCover(ctx context.Context, p entity.Principal, id int64, filename, contentType string, r io.Reader) (*entity.Book, error)
}

type LoanService interface {
	CreateLoan(ctx context.Context, p entity.Principal, userID, bookID int64) (*entity.Loan, error)
	ReturnBook(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error)
	ExtendLoan(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error)
	GetLoan(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error)
	ListLoans(ctx context.Context, p entity.Principal) ([]entity.Loan, error)
	ListLoansByUser(ctx context.Context, p entity.Principal, userID int64) ([]entity.Loan, error)
	SendOverdueReminders(ctx context.Context, p entity.Principal) (int, error)
}

type UserService interface {
	Register(ctx context.Context, p entity.Principal, in application.RegisterInput) (*entity.User, error)
	Get(ctx context.Context, p entity.Principal, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, p entity.Principal, email string) (*entity.User, error)
	List(ctx context.Context, p entity.Principal) ([]entity.User, error)
	Delete(ctx context.Context, p entity.Principal, id int64) error
}

var (
	_ AuthService   = (*application.AuthService)(nil)
	_ AuthorService = (*application.AuthorService)(nil)
	_ BookService   = (*application.BookService)(nil)
	_ LoanService   = (*application.LoanService)(nil)
	_ UserService   = (*application.UserService)(nil)
)
