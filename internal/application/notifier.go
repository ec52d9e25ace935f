package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

// Notifier queues user-facing emails. A nil Notifier or one without a
// publisher is disabled.
type Notifier struct {
	pub      JobPublisher
	branding mailtpl.Branding
	logger   *logrus.Logger
}

func NewNotifier(pub JobPublisher, branding mailtpl.Branding, logger *logrus.Logger) *Notifier {
	return &Notifier{pub: pub, branding: branding, logger: logger}
}

func (n *Notifier) Enabled() bool { return n != nil && n.pub != nil }

func (n *Notifier) Welcome(ctx context.Context, u *entity.User) error {
	if !n.Enabled() {
		return nil
	}
	return n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Universal,
		Data:     mailtpl.NewWelcomeData(n.branding, u.FirstName, u.Email),
	})
}

// Loan queues one of the loan_* notification types.
func (n *Notifier) Loan(ctx context.Context, typ string, u *entity.User, b *entity.Book, l *entity.Loan, now time.Time) error {
	if !n.Enabled() {
		return nil
	}
	opts := []mailtpl.Option{
		mailtpl.WithBook(b.Title),
		mailtpl.WithLoan(l.ID, l.BorrowedDate, l.DueDate, l.ReturnedDate),
	}
	if typ == mailtpl.LoanOverdue {
		opts = append(opts, mailtpl.WithOverdueSince(l.DueDate, now))
	}
	return n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Universal,
		Data:     mailtpl.NewLoanData(n.branding, typ, u.FirstName, u.Email, opts...),
	})
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) error {
	if err := n.pub.PublishJSON(ctx, job); err != nil {
		if n.logger != nil {
			n.logger.WithError(err).WithField("to", job.To).Warn("publish email job failed")
		}
		return err
	}
	return nil
}
