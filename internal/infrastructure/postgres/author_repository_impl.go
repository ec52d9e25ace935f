package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const authorColumns = `id, first_name, last_name, birth_year, nationality, created_at, updated_at`

type AuthorRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

func scanAuthor(row interface{ Scan(dest ...any) error }) (*entity.Author, error) {
	a := &entity.Author{}
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.BirthYear, &a.Nationality,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *AuthorRepository) Create(ctx context.Context, a *entity.Author) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO authors (first_name, last_name, birth_year, nationality)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, a.FirstName, a.LastName, a.BirthYear, a.Nationality)

	return mapError(row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

func (r *AuthorRepository) GetByID(ctx context.Context, id int64) (*entity.Author, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id)
	return scanAuthor(row)
}

func (r *AuthorRepository) List(ctx context.Context) ([]entity.Author, error) {
	return r.query(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY id`)
}

func (r *AuthorRepository) FindByLastName(ctx context.Context, lastName string) ([]entity.Author, error) {
	return r.query(ctx, `SELECT `+authorColumns+` FROM authors WHERE lower(last_name) = $1 ORDER BY id`,
		strings.ToLower(strings.TrimSpace(lastName)))
}

func (r *AuthorRepository) query(ctx context.Context, sql string, args ...any) ([]entity.Author, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := make([]entity.Author, 0)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

func (r *AuthorRepository) LockByID(ctx context.Context, id int64) error {
	var locked int64
	return mapError(conn(ctx, r.pool).QueryRow(ctx, `SELECT id FROM authors WHERE id = $1 FOR UPDATE`, id).Scan(&locked))
}

func (r *AuthorRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AuthorRepository = (*AuthorRepository)(nil)
