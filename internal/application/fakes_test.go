package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
)

// memDB is an in-memory stand-in for Postgres. Transactions are serialized
// and rolled back by restoring a snapshot.
type memDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID  int64
	authors map[int64]entity.Author
	books   map[int64]entity.Book
	users   map[int64]entity.User
	loans   map[int64]entity.Loan
}

func newMemDB() *memDB {
	return &memDB{
		authors: map[int64]entity.Author{},
		books:   map[int64]entity.Book{},
		users:   map[int64]entity.User{},
		loans:   map[int64]entity.Loan{},
	}
}

type memSnapshot struct {
	nextID  int64
	authors map[int64]entity.Author
	books   map[int64]entity.Book
	users   map[int64]entity.User
	loans   map[int64]entity.Loan
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{db.nextID, cloneMap(db.authors), cloneMap(db.books), cloneMap(db.users), cloneMap(db.loans)}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID, db.authors, db.books, db.users, db.loans = s.nextID, s.authors, s.books, s.users, s.loans
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	snap := db.snapshot()
	if err := fn(ctx); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) book(id int64) entity.Book {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.books[id]
}

func (db *memDB) loan(id int64) entity.Loan {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.loans[id]
}

func (db *memDB) loanCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.loans)
}

// seed helpers

func (db *memDB) addAuthor(first, last string) entity.Author {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := entity.Author{ID: db.id(), FirstName: first, LastName: last}
	db.authors[a.ID] = a
	return a
}

func (db *memDB) addBook(title string, authorID int64, available, total int) entity.Book {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := entity.Book{ID: db.id(), Title: title, PublicationYear: 1965, AuthorID: authorID, AvailableCopies: available, TotalCopies: total}
	db.books[b.ID] = b
	return b
}

func (db *memDB) addUser(email string, role entity.Role) entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := entity.User{ID: db.id(), FirstName: "Test", LastName: "User", Email: email, Password: "hashed:pw", Role: role}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addLoan(l entity.Loan) entity.Loan {
	db.mu.Lock()
	defer db.mu.Unlock()
	l.ID = db.id()
	db.loans[l.ID] = l
	return l
}

// authors

type memAuthors struct{ db *memDB }

func (r memAuthors) Create(_ context.Context, a *entity.Author) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	r.db.authors[a.ID] = *a
	return nil
}

func (r memAuthors) GetByID(_ context.Context, id int64) (*entity.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.authors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (r memAuthors) List(_ context.Context) ([]entity.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]entity.Author, 0, len(r.db.authors))
	for _, a := range r.db.authors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAuthors) FindByLastName(ctx context.Context, lastName string) ([]entity.Author, error) {
	all, _ := r.List(ctx)
	out := make([]entity.Author, 0)
	for _, a := range all {
		if strings.EqualFold(a.LastName, lastName) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAuthors) LockByID(ctx context.Context, id int64) error {
	_, err := r.GetByID(ctx, id)
	return err
}

func (r memAuthors) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.authors[id]; !ok {
		return repo.ErrNotFound
	}
	for _, b := range r.db.books {
		if b.AuthorID == id {
			return repo.ErrReferenced
		}
	}
	delete(r.db.authors, id)
	return nil
}

// books

type memBooks struct{ db *memDB }

func (r memBooks) withAuthor(b entity.Book) entity.Book {
	if a, ok := r.db.authors[b.AuthorID]; ok {
		b.Author = &a
	}
	return b
}

func (r memBooks) Create(_ context.Context, b *entity.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b.ID = r.db.id()
	r.db.books[b.ID] = *b
	return nil
}

func (r memBooks) GetByID(_ context.Context, id int64) (*entity.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.books[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	b = r.withAuthor(b)
	return &b, nil
}

func (r memBooks) filter(keep func(entity.Book) bool) []entity.Book {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]entity.Book, 0)
	for _, b := range r.db.books {
		if keep(b) {
			out = append(out, r.withAuthor(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memBooks) List(_ context.Context) ([]entity.Book, error) {
	return r.filter(func(entity.Book) bool { return true }), nil
}

func (r memBooks) ListByIDs(_ context.Context, ids []int64) ([]entity.Book, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(b entity.Book) bool { return want[b.ID] }), nil
}

func (r memBooks) SearchByTitle(_ context.Context, title string) ([]entity.Book, error) {
	t := strings.ToLower(title)
	return r.filter(func(b entity.Book) bool { return strings.Contains(strings.ToLower(b.Title), t) }), nil
}

func (r memBooks) Count(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.books), nil
}

func (r memBooks) DecrementAvailable(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.books[id]
	if !ok || b.AvailableCopies <= 0 {
		return repo.ErrPreconditionFailed
	}
	b.AvailableCopies--
	r.db.books[id] = b
	return nil
}

func (r memBooks) IncrementAvailable(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.books[id]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return repo.ErrPreconditionFailed
	}
	b.AvailableCopies++
	r.db.books[id] = b
	return nil
}

func (r memBooks) SetCoverURL(_ context.Context, id int64, url string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.books[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.CoverURL = url
	r.db.books[id] = b
	return nil
}

func (r memBooks) LockByAuthor(context.Context, int64) error { return nil }

func (r memBooks) DeleteByAuthor(_ context.Context, authorID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.loans {
		if r.db.books[l.BookID].AuthorID == authorID {
			return nil, repo.ErrReferenced
		}
	}
	ids := make([]int64, 0)
	for id, b := range r.db.books {
		if b.AuthorID == authorID {
			ids = append(ids, id)
			delete(r.db.books, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// users

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repo.ErrDuplicate
		}
	}
	u.ID = r.db.id()
	r.db.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) List(_ context.Context) ([]entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]entity.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) LockByID(ctx context.Context, id int64) error {
	_, err := r.GetByID(ctx, id)
	return err
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return repo.ErrNotFound
	}
	for _, l := range r.db.loans {
		if l.UserID == id {
			return repo.ErrReferenced
		}
	}
	delete(r.db.users, id)
	return nil
}

// loans

type memLoans struct{ db *memDB }

func (r memLoans) Create(_ context.Context, l *entity.Loan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[l.UserID]; !ok {
		return repo.ErrNotFound
	}
	l.ID = r.db.id()
	r.db.loans[l.ID] = *l
	return nil
}

func (r memLoans) GetByID(_ context.Context, id int64) (*entity.Loan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.loans[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &l, nil
}

func (r memLoans) filter(keep func(l entity.Loan) bool) []entity.Loan {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]entity.Loan, 0)
	for _, l := range r.db.loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memLoans) List(_ context.Context) ([]entity.Loan, error) {
	return r.filter(func(entity.Loan) bool { return true }), nil
}

func (r memLoans) ListByUser(_ context.Context, userID int64) ([]entity.Loan, error) {
	return r.filter(func(l entity.Loan) bool { return l.UserID == userID }), nil
}

func (r memLoans) ListOverdue(_ context.Context, now time.Time) ([]entity.Loan, error) {
	return r.filter(func(l entity.Loan) bool { return l.IsOverdue(now) }), nil
}

func (r memLoans) CountActiveByUser(_ context.Context, userID int64) (int, error) {
	return len(r.filter(func(l entity.Loan) bool { return l.UserID == userID && l.IsActive() })), nil
}

func (r memLoans) CountActiveByAuthor(_ context.Context, authorID int64) (int, error) {
	r.db.mu.Lock()
	books := cloneMap(r.db.books)
	r.db.mu.Unlock()
	return len(r.filter(func(l entity.Loan) bool { return l.IsActive() && books[l.BookID].AuthorID == authorID })), nil
}

func (r memLoans) MarkReturned(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.loans[id]
	if !ok || !l.IsActive() {
		return repo.ErrPreconditionFailed
	}
	l.ReturnedDate = &at
	r.db.loans[id] = l
	return nil
}

func (r memLoans) ExtendDue(_ context.Context, id int64, from, to time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.loans[id]
	if !ok || !l.IsActive() || !l.DueDate.Equal(from) {
		return repo.ErrPreconditionFailed
	}
	l.DueDate = to
	r.db.loans[id] = l
	return nil
}

func (r memLoans) DeleteByUser(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, l := range r.db.loans {
		if l.UserID == userID && l.ReturnedDate != nil {
			delete(r.db.loans, id)
		}
	}
	return nil
}

func (r memLoans) DeleteByAuthor(_ context.Context, authorID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, l := range r.db.loans {
		if r.db.books[l.BookID].AuthorID == authorID && l.ReturnedDate != nil {
			delete(r.db.loans, id)
		}
	}
	return nil
}

// collaborators

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(hash, plain string) bool   { return hash == "hashed:"+plain }

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

type memCache struct {
	mu          sync.Mutex
	books       map[int64]entity.Book
	invalidated []int64
}

func newMemCache() *memCache { return &memCache{books: map[int64]entity.Book{}} }

func (c *memCache) Get(_ context.Context, id int64) (*entity.Book, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[id]
	if !ok {
		return nil, false, nil
	}
	return &b, true, nil
}

func (c *memCache) Set(_ context.Context, b *entity.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[b.ID] = *b
	return nil
}

func (c *memCache) Invalidate(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.books, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type fakeIndex struct {
	ids     []int64
	err     error
	indexed []int64
	deleted []int64
}

func (f *fakeIndex) Index(_ context.Context, b *entity.Book) error {
	f.indexed = append(f.indexed, b.ID)
	return f.err
}

func (f *fakeIndex) SearchTitleIDs(context.Context, string, int) ([]int64, error) {
	return f.ids, f.err
}

func (f *fakeIndex) Delete(_ context.Context, ids ...int64) error {
	f.deleted = append(f.deleted, ids...)
	return f.err
}

type fakeCovers struct {
	url string
	err error
}

func (f fakeCovers) Upload(_ context.Context, _ int64, _ string, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, r)
	return f.url, nil
}

type fakeRevoker struct{ revoked []int64 }

func (f *fakeRevoker) Revoke(_ context.Context, userID int64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

var errBoom = errors.New("boom")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// lateLoans lends a copy right after the active-loan count is taken, the way
// a concurrent borrow commits between the check and the delete.
type lateLoans struct {
	memLoans
	late      entity.Loan
	remaining int
}

func (r *lateLoans) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	n, err := r.memLoans.CountActiveByUser(ctx, userID)
	r.db.addLoan(r.late)
	return n, err
}

func (r *lateLoans) CountActiveByAuthor(ctx context.Context, authorID int64) (int, error) {
	n, err := r.memLoans.CountActiveByAuthor(ctx, authorID)
	r.db.addLoan(r.late)
	return n, err
}

func (r *lateLoans) DeleteByUser(ctx context.Context, userID int64) error {
	err := r.memLoans.DeleteByUser(ctx, userID)
	r.remaining = r.db.loanCount()
	return err
}

func (r *lateLoans) DeleteByAuthor(ctx context.Context, authorID int64) error {
	err := r.memLoans.DeleteByAuthor(ctx, authorID)
	r.remaining = r.db.loanCount()
	return err
}
