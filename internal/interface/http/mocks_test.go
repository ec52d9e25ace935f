package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
)

type mockLoanService struct{ mock.Mock }

func (m *mockLoanService) loan(args mock.Arguments) (*entity.Loan, error) {
	l, _ := args.Get(0).(*entity.Loan)
	return l, args.Error(1)
}

func (m *mockLoanService) CreateLoan(ctx context.Context, p entity.Principal, userID, bookID int64) (*entity.Loan, error) {
	return m.loan(m.Called(ctx, p, userID, bookID))
}

func (m *mockLoanService) ReturnBook(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error) {
	return m.loan(m.Called(ctx, p, loanID))
}

func (m *mockLoanService) ExtendLoan(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error) {
	return m.loan(m.Called(ctx, p, loanID))
}

func (m *mockLoanService) GetLoan(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error) {
	return m.loan(m.Called(ctx, p, loanID))
}

func (m *mockLoanService) ListLoans(ctx context.Context, p entity.Principal) ([]entity.Loan, error) {
	args := m.Called(ctx, p)
	loans, _ := args.Get(0).([]entity.Loan)
	return loans, args.Error(1)
}

func (m *mockLoanService) ListLoansByUser(ctx context.Context, p entity.Principal, userID int64) ([]entity.Loan, error) {
	args := m.Called(ctx, p, userID)
	loans, _ := args.Get(0).([]entity.Loan)
	return loans, args.Error(1)
}

func (m *mockLoanService) SendOverdueReminders(ctx context.Context, p entity.Principal) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

type mockBookService struct{ mock.Mock }

func (m *mockBookService) Create(ctx context.Context, p entity.Principal, in application.CreateBookInput) (*entity.Book, error) {
	args := m.Called(ctx, p, in)
	b, _ := args.Get(0).(*entity.Book)
	return b, args.Error(1)
}

func (m *mockBookService) List(ctx context.Context, p entity.Principal) (*application.BookListing, error) {
	args := m.Called(ctx, p)
	l, _ := args.Get(0).(*application.BookListing)
	return l, args.Error(1)
}

func (m *mockBookService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Book, policy.Tier, error) {
	args := m.Called(ctx, p, id)
	b, _ := args.Get(0).(*entity.Book)
	return b, args.Get(1).(policy.Tier), args.Error(2)
}

func (m *mockBookService) SearchByTitle(ctx context.Context, p entity.Principal, title string) (*application.BookListing, error) {
	args := m.Called(ctx, p, title)
	l, _ := args.Get(0).(*application.BookListing)
	return l, args.Error(1)
}

func (m *mockBookService) UploadCover(ctx context.Context, p entity.Principal, id int64, filename, contentType string, r io.Reader) (*entity.Book, error) {
	args := m.Called(ctx, p, id, filename, contentType, r)
	b, _ := args.Get(0).(*entity.Book)
	return b, args.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, p entity.Principal, in application.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, p, in)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.User, error) {
	args := m.Called(ctx, p, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserService) GetByEmail(ctx context.Context, p entity.Principal, email string) (*entity.User, error) {
	args := m.Called(ctx, p, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserService) List(ctx context.Context, p entity.Principal) ([]entity.User, error) {
	args := m.Called(ctx, p)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Error(1)
}

func (m *mockUserService) Delete(ctx context.Context, p entity.Principal, id int64) error {
	return m.Called(ctx, p, id).Error(0)
}

type mockAuthorService struct{ mock.Mock }

func (m *mockAuthorService) Create(ctx context.Context, p entity.Principal, in application.CreateAuthorInput) (*entity.Author, error) {
	args := m.Called(ctx, p, in)
	a, _ := args.Get(0).(*entity.Author)
	return a, args.Error(1)
}

func (m *mockAuthorService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Author, error) {
	args := m.Called(ctx, p, id)
	a, _ := args.Get(0).(*entity.Author)
	return a, args.Error(1)
}

func (m *mockAuthorService) List(ctx context.Context, p entity.Principal) ([]entity.Author, error) {
	args := m.Called(ctx, p)
	authors, _ := args.Get(0).([]entity.Author)
	return authors, args.Error(1)
}

func (m *mockAuthorService) FindByLastName(ctx context.Context, p entity.Principal, lastName string) ([]entity.Author, error) {
	args := m.Called(ctx, p, lastName)
	authors, _ := args.Get(0).([]entity.Author)
	return authors, args.Error(1)
}

func (m *mockAuthorService) Delete(ctx context.Context, p entity.Principal, id int64) error {
	return m.Called(ctx, p, id).Error(0)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*application.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*application.Session)
	return s, args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*application.Session, error) {
	args := m.Called(ctx, refreshToken)
	s, _ := args.Get(0).(*application.Session)
	return s, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, p entity.Principal) error {
	return m.Called(ctx, p).Error(0)
}
