package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const bookSelect = `
	SELECT b.id, b.title, b.publication_year, b.available_copies, b.total_copies, b.author_id,
	       b.cover_url, b.created_at, b.updated_at,
	       a.id, a.first_name, a.last_name, a.birth_year, a.nationality, a.created_at, a.updated_at
	FROM books b
	JOIN authors a ON a.id = b.author_id`

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func scanBook(row interface{ Scan(dest ...any) error }) (*entity.Book, error) {
	b := &entity.Book{Author: &entity.Author{}}
	a := b.Author
	if err := row.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AvailableCopies, &b.TotalCopies, &b.AuthorID,
		&b.CoverURL, &b.CreatedAt, &b.UpdatedAt,
		&a.ID, &a.FirstName, &a.LastName, &a.BirthYear, &a.Nationality, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO books (title, publication_year, available_copies, total_copies, author_id, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, b.Title, b.PublicationYear, b.AvailableCopies, b.TotalCopies, b.AuthorID, b.CoverURL)

	return mapError(row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt))
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*entity.Book, error) {
	return scanBook(conn(ctx, r.pool).QueryRow(ctx, bookSelect+` WHERE b.id = $1`, id))
}

func (r *BookRepository) List(ctx context.Context) ([]entity.Book, error) {
	return r.query(ctx, bookSelect+` ORDER BY b.id`)
}

func (r *BookRepository) ListByIDs(ctx context.Context, ids []int64) ([]entity.Book, error) {
	if len(ids) == 0 {
		return []entity.Book{}, nil
	}
	return r.query(ctx, bookSelect+` WHERE b.id = ANY($1) ORDER BY b.id`, ids)
}

func (r *BookRepository) SearchByTitle(ctx context.Context, title string) ([]entity.Book, error) {
	return r.query(ctx, bookSelect+` WHERE b.title ILIKE $1 ORDER BY b.id`, containsPattern(title))
}

func (r *BookRepository) query(ctx context.Context, sql string, args ...any) ([]entity.Book, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]entity.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (r *BookRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&n)
	return n, err
}

func (r *BookRepository) DecrementAvailable(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = now()
		WHERE id = $1 AND available_copies > 0
	`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrPreconditionFailed
	}
	return nil
}

func (r *BookRepository) IncrementAvailable(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = now()
		WHERE id = $1 AND available_copies < total_copies
	`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrPreconditionFailed
	}
	return nil
}

func (r *BookRepository) SetCoverURL(ctx context.Context, id int64, url string) error {
	res, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE books SET cover_url = $1, updated_at = now() WHERE id = $2`, url, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookRepository) LockByAuthor(ctx context.Context, authorID int64) error {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id FROM books WHERE author_id = $1 ORDER BY id FOR UPDATE`, authorID)
	if err != nil {
		return mapError(err)
	}
	rows.Close()
	return mapError(rows.Err())
}

func (r *BookRepository) DeleteByAuthor(ctx context.Context, authorID int64) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `DELETE FROM books WHERE author_id = $1 RETURNING id`, authorID)
	if err != nil {
		return nil, mapDeleteError(err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapDeleteError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDeleteError(err)
	}
	return ids, nil
}

var _ repository.BookRepository = (*BookRepository)(nil)
