package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

const (
	msgLoanNotFound    = "loan not found"
	msgUserNotFound    = "user not found"
	msgBookNotFound    = "book not found"
	msgNoCopies        = "no copies available"
	msgAlreadyReturned = "already returned"
	msgExtendReturned  = "cannot extend a returned loan"
)

// LoanService is the borrow/return/extend workflow.
type LoanService struct {
	Loans    repo.LoanRepository
	Books    repo.BookRepository
	Users    repo.UserRepository
	Tx       repo.TxManager
	Cache    BookCache
	Notifier *Notifier
	Logger   *logrus.Logger
	Now      Clock
}

func NewLoanService(loans repo.LoanRepository, books repo.BookRepository, users repo.UserRepository, tx repo.TxManager,
	cache BookCache, notifier *Notifier, logger *logrus.Logger) *LoanService {
	return &LoanService{
		Loans:    loans,
		Books:    books,
		Users:    users,
		Tx:       tx,
		Cache:    cache,
		Notifier: notifier,
		Logger:   logger,
		Now:      helpers.NowUTC,
	}
}

// clock returns the current time at the microsecond precision postgres
// stores, so a loan returned from CreateLoan matches the one read back.
func (s *LoanService) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Microsecond)
	}
	return helpers.NowUTC().Truncate(time.Microsecond)
}

func (s *LoanService) log() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

// CreateLoan lends one copy of bookID to userID. The copy decrement and the
// loan insert commit together; a decrement that finds no copy left fails
// the whole loan.
func (s *LoanService) CreateLoan(ctx context.Context, p entity.Principal, userID, bookID int64) (loan *entity.Loan, err error) {
	defer func() { observeLoanOp("create", err) }()

	if err := policy.CanCreateLoanFor(p, userID); err != nil {
		return nil, err
	}

	var (
		user *entity.User
		book *entity.Book
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.Users.GetByID(ctx, userID); err != nil {
			return notFoundOr(err, msgUserNotFound, "load user")
		}
		if book, err = s.Books.GetByID(ctx, bookID); err != nil {
			return notFoundOr(err, msgBookNotFound, "load book")
		}
		if !book.HasAvailableCopy() {
			return errs.Conflict(msgNoCopies)
		}
		if err := s.Books.DecrementAvailable(ctx, bookID); err != nil {
			if errors.Is(err, repo.ErrPreconditionFailed) {
				return errs.Conflict(msgNoCopies)
			}
			return errs.Internal("decrement copies", err)
		}
		loan = entity.NewLoan(userID, bookID, s.clock())
		if err := s.Loans.Create(ctx, loan); err != nil {
			// a user deleted after the lookup fails the foreign key
			return notFoundOr(err, msgUserNotFound, "create loan")
		}
		return nil
	})
	if err != nil {
		s.log().WithError(err).WithFields(logrus.Fields{"user_id": userID, "book_id": bookID}).Warn("create loan failed")
		return nil, err
	}

	s.invalidate(ctx, bookID)
	book.AvailableCopies--
	_ = s.Notifier.Loan(ctx, mailtpl.LoanCreated, user, book, loan, loan.BorrowedDate)
	return loan, nil
}

// ReturnBook closes an active loan and puts the copy back on the shelf.
func (s *LoanService) ReturnBook(ctx context.Context, p entity.Principal, loanID int64) (loan *entity.Loan, err error) {
	defer func() { observeLoanOp("return", err) }()

	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.activeLoanFor(ctx, p, loanID, msgAlreadyReturned); err != nil {
			return err
		}
		at := s.clock()
		if err := s.Loans.MarkReturned(ctx, loanID, at); err != nil {
			if errors.Is(err, repo.ErrPreconditionFailed) {
				return errs.Conflict(msgAlreadyReturned)
			}
			return errs.Internal("mark returned", err)
		}
		loan.ReturnedDate = &at

		if err := s.Books.IncrementAvailable(ctx, loan.BookID); err != nil {
			if !errors.Is(err, repo.ErrPreconditionFailed) {
				return errs.Internal("increment copies", err)
			}
			// the book is already at total copies; the return itself stands
			s.log().WithFields(logrus.Fields{"loan_id": loanID, "book_id": loan.BookID}).
				Warn("available copies already at total, increment skipped")
		}
		return nil
	})
	if err != nil {
		s.log().WithError(err).WithField("loan_id", loanID).Warn("return book failed")
		return nil, err
	}

	s.invalidate(ctx, loan.BookID)
	s.notifyLoan(ctx, mailtpl.LoanReturned, loan)
	return loan, nil
}

// ExtendLoan pushes the due date of an active loan out by one loan period.
func (s *LoanService) ExtendLoan(ctx context.Context, p entity.Principal, loanID int64) (loan *entity.Loan, err error) {
	defer func() { observeLoanOp("extend", err) }()

	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if loan, err = s.activeLoanFor(ctx, p, loanID, msgExtendReturned); err != nil {
		return nil, err
	}

	from, to := loan.DueDate, loan.ExtendedDueDate()
	if err := s.Loans.ExtendDue(ctx, loanID, from, to); err != nil {
		if !errors.Is(err, repo.ErrPreconditionFailed) {
			return nil, errs.Internal("extend loan", err)
		}
		// lost a race: report what the loan looks like now
		current, gErr := s.Loans.GetByID(ctx, loanID)
		if gErr == nil && !current.IsActive() {
			return nil, errs.Conflict(msgExtendReturned)
		}
		return nil, errs.Conflict("loan was modified concurrently, retry")
	}
	loan.DueDate = to

	s.notifyLoan(ctx, mailtpl.LoanExtended, loan)
	return loan, nil
}

// GetLoan returns one loan visible to p.
func (s *LoanService) GetLoan(ctx context.Context, p entity.Principal, loanID int64) (*entity.Loan, error) {
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	loan, err := s.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, notFoundOr(err, msgLoanNotFound, "load loan")
	}
	if err := policy.CanAccessLoan(p, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context, p entity.Principal) ([]entity.Loan, error) {
	if err := policy.CanListAllLoans(p); err != nil {
		return nil, err
	}
	loans, err := s.Loans.List(ctx)
	if err != nil {
		return nil, errs.Internal("list loans", err)
	}
	return loans, nil
}

// ListLoansByUser returns every loan of userID in persistence order.
func (s *LoanService) ListLoansByUser(ctx context.Context, p entity.Principal, userID int64) ([]entity.Loan, error) {
	if err := policy.CanListUserLoans(p, userID); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "load user")
	}
	loans, err := s.Loans.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("list user loans", err)
	}
	return loans, nil
}

// SendOverdueReminders queues a reminder for every active loan past due and
// returns how many were queued.
func (s *LoanService) SendOverdueReminders(ctx context.Context, p entity.Principal) (sent int, err error) {
	defer func() { observeLoanOp("remind", err) }()

	if err := policy.CanTriggerReminders(p); err != nil {
		return 0, err
	}
	if !s.Notifier.Enabled() {
		return 0, nil
	}
	now := s.clock()
	overdue, err := s.Loans.ListOverdue(ctx, now)
	if err != nil {
		return 0, errs.Internal("list overdue loans", err)
	}
	for i := range overdue {
		l := &overdue[i]
		user, book, err := s.parties(ctx, l)
		if err != nil {
			s.log().WithError(err).WithField("loan_id", l.ID).Warn("skip overdue reminder")
			continue
		}
		if err := s.Notifier.Loan(ctx, mailtpl.LoanOverdue, user, book, l, now); err != nil {
			continue
		}
		sent++
	}
	s.log().WithFields(logrus.Fields{"overdue": len(overdue), "sent": sent}).Info("overdue reminders queued")
	return sent, nil
}

// activeLoanFor loads a loan, authorizes p on it and requires it to be active.
// inactiveMsg is the conflict message for a returned loan.
func (s *LoanService) activeLoanFor(ctx context.Context, p entity.Principal, loanID int64, inactiveMsg string) (*entity.Loan, error) {
	loan, err := s.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, notFoundOr(err, msgLoanNotFound, "load loan")
	}
	if err := policy.CanAccessLoan(p, loan); err != nil {
		return nil, err
	}
	if !loan.IsActive() {
		return nil, errs.Conflict(inactiveMsg)
	}
	return loan, nil
}

func (s *LoanService) parties(ctx context.Context, l *entity.Loan) (*entity.User, *entity.Book, error) {
	user, err := s.Users.GetByID(ctx, l.UserID)
	if err != nil {
		return nil, nil, err
	}
	book, err := s.Books.GetByID(ctx, l.BookID)
	if err != nil {
		return nil, nil, err
	}
	return user, book, nil
}

func (s *LoanService) notifyLoan(ctx context.Context, typ string, l *entity.Loan) {
	if !s.Notifier.Enabled() {
		return
	}
	user, book, err := s.parties(ctx, l)
	if err != nil {
		s.log().WithError(err).WithField("loan_id", l.ID).Warn("skip loan notification")
		return
	}
	_ = s.Notifier.Loan(ctx, typ, user, book, l, s.clock())
}

func (s *LoanService) invalidate(ctx context.Context, bookIDs ...int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, bookIDs...); err != nil {
		s.log().WithError(err).WithField("book_ids", bookIDs).Warn("book cache invalidation failed")
	}
}

// notFoundOr maps repository.ErrNotFound to a NotFound error with msg and
// anything else to Internal.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errs.NotFound(msg)
	}
	return errs.Internal(op, err)
}
