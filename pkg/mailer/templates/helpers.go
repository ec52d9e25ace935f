package templates

import (
	"time"
)

// Branding is the sender identity shown in every email.
type Branding struct {
	CompanyName string
	AppName     string
	LogoURL     string
	SupportURL  string
}

// Option pattern
type Option func(*EmailData)

func WithBook(title string) Option { return func(d *EmailData) { d.BookTitle = title } }

func WithLoan(id int64, borrowed, due time.Time, returned *time.Time) Option {
	return func(d *EmailData) {
		d.LoanID = id
		d.BorrowedDate = formatDate(borrowed)
		d.DueDate = formatDate(due)
		if returned != nil {
			d.ReturnedDate = formatDate(*returned)
		}
	}
}

// WithOverdueSince counts whole days past due at now.
func WithOverdueSince(due, now time.Time) Option {
	return func(d *EmailData) {
		if now.After(due) {
			d.DaysOverdue = int(now.Sub(due).Hours() / 24)
		}
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02 January 2006")
}

// NewBaseEmailData fills the shared fields, then applies options.
func NewBaseEmailData(b Branding, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: b.CompanyName,
		AppName:     b.AppName,
		LogoURL:     b.LogoURL,
		SupportURL:  b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(b Branding, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(b, Welcome, name, email))
}

// NewLoanData builds the payload for the loan_* notification types.
func NewLoanData(b Branding, typ, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, typ, name, email, opts...))
}
