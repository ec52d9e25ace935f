package application

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
)

const searchSize = 100

type BookService struct {
	Books   repo.BookRepository
	Authors repo.AuthorRepository
	Cache   BookCache
	Index   BookIndex
	Covers  CoverUploader
	Logger  *logrus.Logger
}

func NewBookService(books repo.BookRepository, authors repo.AuthorRepository, cache BookCache, index BookIndex,
	covers CoverUploader, logger *logrus.Logger) *BookService {
	return &BookService{Books: books, Authors: authors, Cache: cache, Index: index, Covers: covers, Logger: logger}
}

// BookListing is a catalog read together with the detail tier of the caller.
// Guests only get Count; Books is empty for them.
type BookListing struct {
	Tier  policy.Tier
	Books []entity.Book
	Count int
}

type CreateBookInput struct {
	Title           string
	PublicationYear int
	AvailableCopies int
	TotalCopies     int
	AuthorID        int64
}

func (s *BookService) Create(ctx context.Context, p entity.Principal, in CreateBookInput) (*entity.Book, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	b := &entity.Book{
		Title:           strings.TrimSpace(in.Title),
		PublicationYear: in.PublicationYear,
		AvailableCopies: in.AvailableCopies,
		TotalCopies:     in.TotalCopies,
		AuthorID:        in.AuthorID,
	}
	if err := b.Validate(); err != nil {
		return nil, bookValidationError(err)
	}
	author, err := s.Authors.GetByID(ctx, in.AuthorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Validation("invalid payload", map[string]string{"author_id": "author does not exist"})
		}
		return nil, errs.Internal("load author", err)
	}
	if err := s.Books.Create(ctx, b); err != nil {
		return nil, errs.Internal("create book", err)
	}
	b.Author = author

	if s.Index != nil {
		if err := s.Index.Index(ctx, b); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", b.ID).Warn("es index failed")
		}
	}
	return b, nil
}

func bookValidationError(err error) error {
	switch {
	case errors.Is(err, entity.ErrCopiesExceeded):
		return errs.Validation("invalid payload", map[string]string{"available_copies": "must not exceed total_copies"})
	case errors.Is(err, entity.ErrNegativeCopies):
		return errs.Validation("invalid payload", map[string]string{"total_copies": "copy counts cannot be negative"})
	case errors.Is(err, entity.ErrAuthorIDRequired):
		return errs.Validation("invalid payload", map[string]string{"author_id": "is required"})
	default:
		return errs.Validation(err.Error(), nil)
	}
}

// List returns the whole catalog shaped by the caller's tier.
func (s *BookService) List(ctx context.Context, p entity.Principal) (*BookListing, error) {
	tier := policy.DetailTier(p)
	if tier == policy.TierGuest {
		n, err := s.Books.Count(ctx)
		if err != nil {
			return nil, errs.Internal("count books", err)
		}
		return &BookListing{Tier: tier, Books: []entity.Book{}, Count: n}, nil
	}
	books, err := s.Books.List(ctx)
	if err != nil {
		return nil, errs.Internal("list books", err)
	}
	return &BookListing{Tier: tier, Books: books, Count: len(books)}, nil
}

// Get reads one book through the cache.
func (s *BookService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Book, policy.Tier, error) {
	tier := policy.DetailTier(p)
	if s.Cache != nil {
		b, found, err := s.Cache.Get(ctx, id)
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", id).Warn("book cache read failed")
		}
		if found {
			return b, tier, nil
		}
	}
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return nil, tier, notFoundOr(err, "book not found", "load book")
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, b); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", id).Warn("book cache write failed")
		}
	}
	return b, tier, nil
}

// SearchByTitle matches a case-insensitive title substring. The search
// index is used when configured; any index failure falls back to Postgres.
func (s *BookService) SearchByTitle(ctx context.Context, p entity.Principal, title string) (*BookListing, error) {
	tier := policy.DetailTier(p)
	title = strings.TrimSpace(title)

	books, err := s.searchIndex(ctx, title)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, falling back to database")
		}
		books = nil
	}
	if books == nil {
		if books, err = s.Books.SearchByTitle(ctx, title); err != nil {
			return nil, errs.Internal("search books", err)
		}
	}
	return &BookListing{Tier: tier, Books: books, Count: len(books)}, nil
}

// searchIndex returns nil books when no index is configured.
func (s *BookService) searchIndex(ctx context.Context, title string) ([]entity.Book, error) {
	if s.Index == nil {
		return nil, nil
	}
	ids, err := s.Index.SearchTitleIDs(ctx, title, searchSize)
	if err != nil {
		return nil, err
	}
	return s.Books.ListByIDs(ctx, ids)
}

// UploadCover stores an image for the book and records its public URL.
func (s *BookService) UploadCover(ctx context.Context, p entity.Principal, id int64, filename, contentType string, r io.Reader) (*entity.Book, error) {
	if err := policy.CanManageCatalog(p); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, errs.Validation("invalid file", map[string]string{"file": "must be an image"})
	}
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "book not found", "load book")
	}
	if s.Covers == nil {
		return nil, errs.Internal("upload cover", errors.New("cover storage not configured"))
	}
	url, err := s.Covers.Upload(ctx, id, filename, contentType, r)
	if err != nil {
		return nil, errs.Internal("upload cover", err)
	}
	if err := s.Books.SetCoverURL(ctx, id, url); err != nil {
		return nil, notFoundOr(err, "book not found", "save cover url")
	}
	b.CoverURL = url

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, id); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", id).Warn("book cache invalidation failed")
		}
	}
	return b, nil
}
