package entity

import (
	"errors"
	"time"
)

var (
	ErrNegativeCopies   = errors.New("copy counts cannot be negative")
	ErrCopiesExceeded   = errors.New("available copies cannot exceed total copies")
	ErrAuthorIDRequired = errors.New("author id must be provided")
)

// Book is a catalog title. Invariant: 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              int64
	Title           string
	PublicationYear int
	AvailableCopies int
	TotalCopies     int
	AuthorID        int64
	Author          *Author
	CoverURL        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the copy-count invariant and the author reference.
func (b *Book) Validate() error {
	if b.AuthorID <= 0 {
		return ErrAuthorIDRequired
	}
	if b.AvailableCopies < 0 || b.TotalCopies < 0 {
		return ErrNegativeCopies
	}
	if b.AvailableCopies > b.TotalCopies {
		return ErrCopiesExceeded
	}
	return nil
}

func (b *Book) HasAvailableCopy() bool { return b.AvailableCopies > 0 }
