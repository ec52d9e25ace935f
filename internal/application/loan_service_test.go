package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

type loanFixture struct {
	db    *memDB
	svc   *LoanService
	pub   *recordingPublisher
	cache *memCache

	author entity.Author
	book   entity.Book
	user   entity.User
	other  entity.User
	admin  entity.User
}

func newLoanFixture(t *testing.T, copies int) *loanFixture {
	t.Helper()
	db := newMemDB()
	f := &loanFixture{db: db, pub: &recordingPublisher{}, cache: newMemCache()}
	f.author = db.addAuthor("Frank", "Herbert")
	f.book = db.addBook("Dune", f.author.ID, copies, 5)
	f.user = db.addUser("u1@example.com", entity.RoleUser)
	f.other = db.addUser("u2@example.com", entity.RoleUser)
	f.admin = db.addUser("admin@example.com", entity.RoleAdmin)

	notifier := NewNotifier(f.pub, mailtpl.Branding{CompanyName: "City Library"}, quietLogger())
	f.svc = NewLoanService(memLoans{db}, memBooks{db}, memUsers{db}, db, f.cache, notifier, quietLogger())
	f.svc.Now = fixedClock
	return f
}

func principalOf(u entity.User) entity.Principal {
	return entity.NewPrincipal(u.ID, u.Email, u.Role)
}

func TestCreateLoan_DecrementsCopies(t *testing.T) {
	f := newLoanFixture(t, 5)

	loan, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.NoError(t, err)

	assert.NotZero(t, loan.ID)
	assert.Equal(t, fixedNow, loan.BorrowedDate)
	assert.Equal(t, fixedNow.Add(entity.LoanPeriod), loan.DueDate)
	assert.Nil(t, loan.ReturnedDate)
	assert.Equal(t, 4, f.db.book(f.book.ID).AvailableCopies)
	assert.Equal(t, 1, f.pub.count())
	assert.Contains(t, f.cache.invalidated, f.book.ID)
}

func TestCreateLoan_NoCopies(t *testing.T) {
	f := newLoanFixture(t, 0)

	_, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.Error(t, err)

	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, "no copies available", errs.MessageOf(err))
	assert.Equal(t, 0, f.db.book(f.book.ID).AvailableCopies)
	assert.Zero(t, f.db.loanCount())
	assert.Zero(t, f.pub.count())
}

func TestCreateLoan_Errors(t *testing.T) {
	f := newLoanFixture(t, 3)
	ctx := context.Background()

	tests := []struct {
		name   string
		p      entity.Principal
		userID int64
		bookID int64
		kind   errs.Kind
	}{
		{"anonymous", entity.Anonymous(), f.user.ID, f.book.ID, errs.KindUnauthenticated},
		{"for another user", principalOf(f.user), f.other.ID, f.book.ID, errs.KindForbidden},
		{"admin for another user", principalOf(f.admin), f.user.ID, f.book.ID, errs.KindForbidden},
		{"missing book", principalOf(f.user), f.user.ID, 9999, errs.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateLoan(ctx, tt.p, tt.userID, tt.bookID)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
	assert.Equal(t, 3, f.db.book(f.book.ID).AvailableCopies)
	assert.Zero(t, f.db.loanCount())
}

func TestCreateLoan_MissingUser(t *testing.T) {
	f := newLoanFixture(t, 3)
	ghost := entity.NewPrincipal(4242, "ghost@example.com", entity.RoleUser)

	_, err := f.svc.CreateLoan(context.Background(), ghost, 4242, f.book.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Equal(t, "user not found", errs.MessageOf(err))
}

// staleBooks reports a copy on the shelf even when the conditional
// decrement will find none.
type staleBooks struct{ memBooks }

func (r staleBooks) GetByID(ctx context.Context, id int64) (*entity.Book, error) {
	b, err := r.memBooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.AvailableCopies = 1
	return b, nil
}

func TestCreateLoan_LostDecrementRace(t *testing.T) {
	f := newLoanFixture(t, 0)
	f.svc.Books = staleBooks{memBooks{f.db}}

	_, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, 0, f.db.book(f.book.ID).AvailableCopies)
	assert.Zero(t, f.db.loanCount())
}

func TestCreateLoan_ConcurrentLastCopy(t *testing.T) {
	f := newLoanFixture(t, 1)
	users := []entity.User{f.user, f.other, f.admin}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u entity.User) {
			defer wg.Done()
			_, err := f.svc.CreateLoan(context.Background(), principalOf(u), u.ID, f.book.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errs.Is(err, errs.KindConflict) {
				conflicts++
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, 0, f.db.book(f.book.ID).AvailableCopies)
	assert.Equal(t, 1, f.db.loanCount())
}

func TestReturnBook_RestoresCopies(t *testing.T) {
	f := newLoanFixture(t, 5)
	ctx := context.Background()
	p := principalOf(f.user)

	loan, err := f.svc.CreateLoan(ctx, p, f.user.ID, f.book.ID)
	require.NoError(t, err)

	returned, err := f.svc.ReturnBook(ctx, p, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, fixedNow, *returned.ReturnedDate)
	assert.Equal(t, 5, f.db.book(f.book.ID).AvailableCopies)

	_, err = f.svc.ReturnBook(ctx, p, loan.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, "already returned", errs.MessageOf(err))
	assert.Equal(t, 5, f.db.book(f.book.ID).AvailableCopies)
}

func TestReturnBook_AtTotalStillReturns(t *testing.T) {
	f := newLoanFixture(t, 5)
	loan := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow.Add(-48*time.Hour)))

	returned, err := f.svc.ReturnBook(context.Background(), principalOf(f.user), loan.ID)
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, 5, f.db.book(f.book.ID).AvailableCopies)
}

func TestReturnBook_Access(t *testing.T) {
	f := newLoanFixture(t, 4)
	loan := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow))
	ctx := context.Background()

	_, err := f.svc.ReturnBook(ctx, principalOf(f.other), loan.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = f.svc.ReturnBook(ctx, entity.Anonymous(), loan.ID)
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	_, err = f.svc.ReturnBook(ctx, principalOf(f.user), 9999)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = f.svc.ReturnBook(ctx, principalOf(f.admin), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.db.book(f.book.ID).AvailableCopies)
}

func TestExtendLoan(t *testing.T) {
	f := newLoanFixture(t, 5)
	ctx := context.Background()
	p := principalOf(f.user)

	loan, err := f.svc.CreateLoan(ctx, p, f.user.ID, f.book.ID)
	require.NoError(t, err)
	due := loan.DueDate

	extended, err := f.svc.ExtendLoan(ctx, p, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, due.Add(14*24*time.Hour), extended.DueDate)
	assert.Equal(t, extended.DueDate, f.db.loan(loan.ID).DueDate)

	_, err = f.svc.ReturnBook(ctx, p, loan.ID)
	require.NoError(t, err)

	_, err = f.svc.ExtendLoan(ctx, p, loan.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, "cannot extend a returned loan", errs.MessageOf(err))
}

func TestExtendLoan_NotOwner(t *testing.T) {
	f := newLoanFixture(t, 5)
	loan := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow))

	_, err := f.svc.ExtendLoan(context.Background(), principalOf(f.other), loan.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	assert.Equal(t, loan.DueDate, f.db.loan(loan.ID).DueDate)
}

func TestGetAndListLoans(t *testing.T) {
	f := newLoanFixture(t, 5)
	ctx := context.Background()
	mine := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow))
	f.db.addLoan(*entity.NewLoan(f.other.ID, f.book.ID, fixedNow))

	got, err := f.svc.GetLoan(ctx, principalOf(f.user), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.svc.GetLoan(ctx, principalOf(f.other), mine.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = f.svc.ListLoans(ctx, principalOf(f.user))
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	all, err := f.svc.ListLoans(ctx, principalOf(f.admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListLoansByUser(t *testing.T) {
	f := newLoanFixture(t, 5)
	ctx := context.Background()
	first := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow))
	second := f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow))

	loans, err := f.svc.ListLoansByUser(ctx, principalOf(f.user), f.user.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, second.ID, loans[1].ID)

	empty, err := f.svc.ListLoansByUser(ctx, principalOf(f.admin), f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.svc.ListLoansByUser(ctx, principalOf(f.other), f.user.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = f.svc.ListLoansByUser(ctx, principalOf(f.admin), 9999)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestSendOverdueReminders(t *testing.T) {
	f := newLoanFixture(t, 5)
	ctx := context.Background()
	f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow.Add(-20*24*time.Hour)))
	f.db.addLoan(*entity.NewLoan(f.other.ID, f.book.ID, fixedNow))

	_, err := f.svc.SendOverdueReminders(ctx, principalOf(f.user))
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	sent, err := f.svc.SendOverdueReminders(ctx, principalOf(f.admin))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, f.pub.count())
}

func TestSendOverdueReminders_NotifierDisabled(t *testing.T) {
	f := newLoanFixture(t, 5)
	f.svc.Notifier = nil
	f.db.addLoan(*entity.NewLoan(f.user.ID, f.book.ID, fixedNow.Add(-20*24*time.Hour)))

	sent, err := f.svc.SendOverdueReminders(context.Background(), principalOf(f.admin))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestLoanOperationMetrics(t *testing.T) {
	f := newLoanFixture(t, 0)
	counter := loanOperations.WithLabelValues("create", "conflict")
	before := testutil.ToFloat64(counter)

	_, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestNotificationFailureDoesNotFailLoan(t *testing.T) {
	f := newLoanFixture(t, 2)
	f.pub.err = errBoom

	_, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.db.book(f.book.ID).AvailableCopies)
}

// vanishingUsers drops the user right after it is read, as a concurrent
// delete committing between the lookup and the loan insert would.
type vanishingUsers struct{ memUsers }

func (r vanishingUsers) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := r.memUsers.GetByID(ctx, id)
	r.db.mu.Lock()
	delete(r.db.users, id)
	r.db.mu.Unlock()
	return u, err
}

func TestCreateLoan_UserDeletedMidway(t *testing.T) {
	f := newLoanFixture(t, 2)
	f.svc.Users = vanishingUsers{memUsers{f.db}}

	_, err := f.svc.CreateLoan(context.Background(), principalOf(f.admin), f.user.ID, f.book.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Equal(t, "user not found", errs.MessageOf(err))
	assert.Equal(t, 2, f.db.book(f.book.ID).AvailableCopies)
	assert.Zero(t, f.db.loanCount())
}

func TestCreateLoan_StoresMicrosecondTimes(t *testing.T) {
	f := newLoanFixture(t, 1)
	f.svc.Now = func() time.Time { return fixedNow.Add(123456789 * time.Nanosecond) }

	loan, err := f.svc.CreateLoan(context.Background(), principalOf(f.user), f.user.ID, f.book.ID)
	require.NoError(t, err)
	assert.Zero(t, loan.BorrowedDate.Nanosecond()%1000)
	assert.Equal(t, fixedNow.Add(123456*time.Microsecond), loan.BorrowedDate)
	assert.Equal(t, loan.BorrowedDate, f.db.loan(loan.ID).BorrowedDate)
}
