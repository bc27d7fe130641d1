package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EmployeeWelcomeEmailData holds data for the email sent to a newly
// registered employee with their generated access code.
type EmployeeWelcomeEmailData struct {
	Email        string
	Name         string
	EmployeeCode string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEmployeeWelcome(ctx context.Context, data *EmployeeWelcomeEmailData) error
}
