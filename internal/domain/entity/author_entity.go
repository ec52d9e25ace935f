package entity

import "time"

// Author owns a collection of books.
type Author struct {
	ID          int64
	FirstName   string
	LastName    string
	BirthYear   *int
	Nationality *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
