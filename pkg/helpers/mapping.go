package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-library-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

func SubjectForUniversal(data map[string]any) string {
	typeStr := fmt.Sprintf("%v", data["Type"])
	title := fmt.Sprintf("%v", data["BookTitle"])
	switch strings.ToLower(typeStr) {
	case mailtpl.Welcome:
		return "Welcome to the library"
	case mailtpl.LoanCreated:
		return "You borrowed " + title
	case mailtpl.LoanReturned:
		return "Thanks for returning " + title
	case mailtpl.LoanExtended:
		return "Your loan of " + title + " was extended"
	case mailtpl.LoanOverdue:
		return "Reminder: " + title + " is overdue"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// MapTypedToUniversal routes jobs addressed by notification type to the
// universal template.
func MapTypedToUniversal(job *mailer.EmailJob) {
	if !mailtpl.IsKnownType(job.Template) {
		return
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if _, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", job.Data["Type"]) == "" {
		job.Data["Type"] = strings.ToLower(job.Template)
	}
	job.Template = mailtpl.Universal
}
