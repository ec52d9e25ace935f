package entity

import "time"

// LoanPeriod is both the initial loan length and the length of one extension.
const LoanPeriod = 14 * 24 * time.Hour

// Loan records one user borrowing one copy of a book.
// ReturnedDate is nil while the loan is active.
type Loan struct {
	ID           int64
	UserID       int64
	BookID       int64
	BorrowedDate time.Time
	DueDate      time.Time
	ReturnedDate *time.Time
}

// NewLoan starts a loan at now with the standard due date.
func NewLoan(userID, bookID int64, now time.Time) *Loan {
	return &Loan{
		UserID:       userID,
		BookID:       bookID,
		BorrowedDate: now,
		DueDate:      now.Add(LoanPeriod),
	}
}

func (l *Loan) IsActive() bool { return l.ReturnedDate == nil }

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.After(l.DueDate)
}

// ExtendedDueDate is the due date after one extension.
func (l *Loan) ExtendedDueDate() time.Time { return l.DueDate.Add(LoanPeriod) }
