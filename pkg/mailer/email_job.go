package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// This service only sends plain-text mail (one-time codes, reset codes).
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
