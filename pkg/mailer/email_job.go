package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either the raw parts (Subject, Text, HTML) or a Template with Data is set.
// Template is a notification type such as "loan_created" or "universal".
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
