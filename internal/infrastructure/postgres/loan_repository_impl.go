package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const loanColumns = `id, user_id, book_id, borrowed_date, due_date, returned_date`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func scanLoan(row interface{ Scan(dest ...any) error }) (*entity.Loan, error) {
	l := &entity.Loan{}
	if err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.BorrowedDate, &l.DueDate, &l.ReturnedDate); err != nil {
		return nil, mapError(err)
	}
	l.BorrowedDate = l.BorrowedDate.UTC()
	l.DueDate = l.DueDate.UTC()
	if l.ReturnedDate != nil {
		t := l.ReturnedDate.UTC()
		l.ReturnedDate = &t
	}
	return l, nil
}

func (r *LoanRepository) Create(ctx context.Context, l *entity.Loan) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO loans (user_id, book_id, borrowed_date, due_date, returned_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, l.UserID, l.BookID, l.BorrowedDate, l.DueDate, l.ReturnedDate)

	return mapError(row.Scan(&l.ID))
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*entity.Loan, error) {
	return scanLoan(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
}

func (r *LoanRepository) List(ctx context.Context) ([]entity.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY id`)
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID int64) ([]entity.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loans WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *LoanRepository) ListOverdue(ctx context.Context, now time.Time) ([]entity.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE returned_date IS NULL AND due_date < $1
		ORDER BY due_date`, now)
}

func (r *LoanRepository) query(ctx context.Context, sql string, args ...any) ([]entity.Loan, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]entity.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *LoanRepository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT count(*) FROM loans WHERE user_id = $1 AND returned_date IS NULL`, userID).Scan(&n)
	return n, err
}

func (r *LoanRepository) CountActiveByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT count(*) FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE b.author_id = $1 AND l.returned_date IS NULL`, authorID).Scan(&n)
	return n, err
}

func (r *LoanRepository) MarkReturned(ctx context.Context, id int64, at time.Time) error {
	res, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE loans SET returned_date = $1 WHERE id = $2 AND returned_date IS NULL`, at, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrPreconditionFailed
	}
	return nil
}

func (r *LoanRepository) ExtendDue(ctx context.Context, id int64, from, to time.Time) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE loans SET due_date = $1
		WHERE id = $2 AND due_date = $3 AND returned_date IS NULL
	`, to, id, from)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrPreconditionFailed
	}
	return nil
}

func (r *LoanRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM loans WHERE user_id = $1 AND returned_date IS NOT NULL`, userID)
	return mapError(err)
}

func (r *LoanRepository) DeleteByAuthor(ctx context.Context, authorID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM loans l USING books b
		WHERE b.id = l.book_id AND b.author_id = $1 AND l.returned_date IS NOT NULL`, authorID)
	return mapError(err)
}

var _ repository.LoanRepository = (*LoanRepository)(nil)
