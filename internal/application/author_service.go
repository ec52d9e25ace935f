package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
)

type AuthorService struct {
	Authors repo.AuthorRepository
	Books   repo.BookRepository
	Loans   repo.LoanRepository
	Tx      repo.TxManager
	Cache   BookCache
	Index   BookIndex
	Logger  *logrus.Logger
}

func NewAuthorService(authors repo.AuthorRepository, books repo.BookRepository, loans repo.LoanRepository, tx repo.TxManager,
	cache BookCache, index BookIndex, logger *logrus.Logger) *AuthorService {
	return &AuthorService{Authors: authors, Books: books, Loans: loans, Tx: tx, Cache: cache, Index: index, Logger: logger}
}

type CreateAuthorInput struct {
	FirstName   string
	LastName    string
	BirthYear   *int
	Nationality *string
}

func (s *AuthorService) Create(ctx context.Context, p entity.Principal, in CreateAuthorInput) (*entity.Author, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	a := &entity.Author{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		BirthYear:   in.BirthYear,
		Nationality: in.Nationality,
	}
	if err := s.Authors.Create(ctx, a); err != nil {
		return nil, errs.Internal("create author", err)
	}
	return a, nil
}

func (s *AuthorService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Author, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	a, err := s.Authors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "author not found", "load author")
	}
	return a, nil
}

func (s *AuthorService) List(ctx context.Context, p entity.Principal) ([]entity.Author, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	authors, err := s.Authors.List(ctx)
	if err != nil {
		return nil, errs.Internal("list authors", err)
	}
	return authors, nil
}

func (s *AuthorService) FindByLastName(ctx context.Context, p entity.Principal, lastName string) ([]entity.Author, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	authors, err := s.Authors.FindByLastName(ctx, lastName)
	if err != nil {
		return nil, errs.Internal("find authors", err)
	}
	return authors, nil
}

// Delete removes an author with its books and their returned loans. It
// refuses while any of those books is out on loan.
func (s *AuthorService) Delete(ctx context.Context, p entity.Principal, id int64) error {
	if err := policy.CanManageCatalog(p); err != nil {
		return err
	}
	var bookIDs []int64
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Authors.LockByID(ctx, id); err != nil {
			return notFoundOr(err, "author not found", "lock author")
		}
		if err := s.Books.LockByAuthor(ctx, id); err != nil {
			return errs.Internal("lock author books", err)
		}
		active, err := s.Loans.CountActiveByAuthor(ctx, id)
		if err != nil {
			return errs.Internal("count active loans", err)
		}
		if active > 0 {
			return errs.Conflict("author has books on active loan")
		}
		if err := s.Loans.DeleteByAuthor(ctx, id); err != nil {
			return errs.Internal("delete author loans", err)
		}
		if bookIDs, err = s.Books.DeleteByAuthor(ctx, id); err != nil {
			if errors.Is(err, repo.ErrReferenced) {
				return errs.Conflict("author has books on active loan")
			}
			return errs.Internal("delete author books", err)
		}
		if err := s.Authors.Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrReferenced) {
				return errs.Conflict("author has books in the catalog")
			}
			return notFoundOr(err, "author not found", "delete author")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(bookIDs) > 0 {
		if s.Cache != nil {
			if err := s.Cache.Invalidate(ctx, bookIDs...); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("author_id", id).Warn("book cache invalidation failed")
			}
		}
		if s.Index != nil {
			if err := s.Index.Delete(ctx, bookIDs...); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("author_id", id).Warn("es delete failed")
			}
		}
	}
	return nil
}
