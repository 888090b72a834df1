package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) SendInvitation(ctx context.Context, email, name, confirmationLink, tenantName string) error {
	subject := "You're invited to TenantFlow"
	if tenantName != "" {
		subject = fmt.Sprintf("Invitation to join %s", tenantName)
	}

	plainText := fmt.Sprintf("Hello %s,\n\nYou have been invited to TenantFlow. Confirm your email to finish setting up your account:\n\n%s\n\nThis link expires in 7 days.\n\nBest regards,\nThe TenantFlow Team", name, confirmationLink)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>You're invited</h2>
				<p>Hello %s,</p>
				<p>You have been invited to TenantFlow. Confirm your email to finish setting up your account.</p>
				<p><a href="%s">Accept invitation</a></p>
				<p>This link expires in 7 days.</p>
			</body>
		</html>
	`, name, confirmationLink)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(name, email)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
