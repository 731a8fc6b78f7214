package services

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService sends the courtesy emails that accompany lifecycle events.
// Push is the primary channel; email only covers the auto-cancellation case
// where the owner may no longer be watching the app.
type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	return &EmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendPodCanceledEmail notifies a pod owner that their pod was canceled
// because it was still recruiting at start time.
func (s *EmailService) SendPodCanceledEmail(ownerEmail, ownerName, podTitle string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(ownerName, ownerEmail)
	subject := fmt.Sprintf("Your pod %s was canceled", podTitle)
	plainContent := fmt.Sprintf("Hello %s, your pod '%s' reached its start time without being confirmed and has been canceled.", ownerName, podTitle)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your pod '<strong>%s</strong>' reached its start time without being confirmed and has been canceled.</p>", ownerName, podTitle)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send cancellation email to %s: %d", ownerEmail, response.StatusCode)
	}
	return nil
}
