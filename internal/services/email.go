package services

import (
	"context"
	"fmt"
	"log/slog"

	"bloodbank/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and
// template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendEmployeeWelcome sends the access-code email to a newly registered
// employee using the "employee_welcome" template.
func (s *emailService) SendEmployeeWelcome(ctx context.Context, data *domain.EmployeeWelcomeEmailData) error {
	if data == nil {
		return fmt.Errorf("employee welcome data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("employee_welcome", data)
	if err != nil {
		return fmt.Errorf("failed to render employee_welcome template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	s.logger.InfoContext(ctx, "welcome email sent", "email", data.Email)
	return nil
}
