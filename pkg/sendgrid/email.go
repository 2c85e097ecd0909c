package sendgrid

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailMessage is a single outbound email. HTMLContent is optional.
type EmailMessage struct {
	To          string
	BCC         []string
	Subject     string
	Content     string
	HTMLContent string
}

type EmailService interface {
	Send(ctx context.Context, msg *EmailMessage) error
	GetSendGridClient() *sendgrid.Client
}

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {
	return &emailService{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

// Send implements EmailService.
func (e *emailService) Send(ctx context.Context, msg *EmailMessage) error {

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.fromName, e.fromEmail))

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", msg.To))

	for _, bcc := range msg.BCC {
		personalization.AddBCCs(mail.NewEmail("", bcc))
	}

	personalization.Subject = msg.Subject
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", msg.Content))
	if msg.HTMLContent != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTMLContent))
	}

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

// GetSendGridClient provides access to the internal sendgrid.Client.
func (e *emailService) GetSendGridClient() *sendgrid.Client {
	return e.client
}
