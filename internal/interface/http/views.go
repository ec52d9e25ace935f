package handlers

import (
	"time"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
)

type authorView struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	BirthYear   *int    `json:"birth_year,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
}

func toAuthorView(a *entity.Author) authorView {
	return authorView{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, BirthYear: a.BirthYear, Nationality: a.Nationality}
}

func toAuthorViews(authors []entity.Author) []authorView {
	out := make([]authorView, 0, len(authors))
	for i := range authors {
		out = append(out, toAuthorView(&authors[i]))
	}
	return out
}

// bookTitleView is what anonymous callers see of a single book.
type bookTitleView struct {
	Title string `json:"title"`
}

type bookView struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
	AuthorName      string `json:"author_name,omitempty"`
}

type bookAdminView struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	PublicationYear int         `json:"publication_year"`
	AvailableCopies int         `json:"available_copies"`
	TotalCopies     int         `json:"total_copies"`
	AuthorID        int64       `json:"author_id"`
	Author          *authorView `json:"author,omitempty"`
	CoverURL        string      `json:"cover_url,omitempty"`
}

// bookFor shapes one book for the caller's tier.
func bookFor(tier policy.Tier, b *entity.Book) any {
	switch tier {
	case policy.TierAdmin:
		v := bookAdminView{
			ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear,
			AvailableCopies: b.AvailableCopies, TotalCopies: b.TotalCopies,
			AuthorID: b.AuthorID, CoverURL: b.CoverURL,
		}
		if b.Author != nil {
			a := toAuthorView(b.Author)
			v.Author = &a
		}
		return v
	case policy.TierUser:
		v := bookView{
			ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear,
			AvailableCopies: b.AvailableCopies, TotalCopies: b.TotalCopies,
		}
		if b.Author != nil {
			v.AuthorName = b.Author.FirstName + " " + b.Author.LastName
		}
		return v
	default:
		return bookTitleView{Title: b.Title}
	}
}

func booksFor(tier policy.Tier, books []entity.Book) []any {
	out := make([]any, 0, len(books))
	for i := range books {
		out = append(out, bookFor(tier, &books[i]))
	}
	return out
}

type loanView struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	BookID       int64      `json:"book_id"`
	BorrowedDate time.Time  `json:"borrowed_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date"`
	Active       bool       `json:"active"`
}

func toLoanView(l *entity.Loan) loanView {
	return loanView{
		ID: l.ID, UserID: l.UserID, BookID: l.BookID,
		BorrowedDate: l.BorrowedDate, DueDate: l.DueDate, ReturnedDate: l.ReturnedDate,
		Active: l.IsActive(),
	}
}

func toLoanViews(loans []entity.Loan) []loanView {
	out := make([]loanView, 0, len(loans))
	for i := range loans {
		out = append(out, toLoanView(&loans[i]))
	}
	return out
}

type userView struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	RegistrationDate time.Time `json:"registration_date"`
}

func toUserView(u *entity.User) userView {
	return userView{
		ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
		Email: u.Email, Role: u.Role.String(), RegistrationDate: u.RegistrationDate,
	}
}

func toUserViews(users []entity.User) []userView {
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toUserView(&users[i]))
	}
	return out
}
