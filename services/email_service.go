package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/smtp-sso/api"
	"go.pilab.hu/smtp-sso/clients/elasticemail"
	"go.pilab.hu/smtp-sso/domain"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
)

// EmailService sends transactional email through Elastic Email. The API key
// is the user's stored one when present, otherwise the server-wide default.
type EmailService struct {
	settings  domain.SMTPSettingsRepository
	newClient EmailClientFactory

	defaultAPIKey   string
	defaultFrom     string
	defaultFromName string
}

// NewEmailService creates the email service. defaultAPIKey may be empty, in
// which case sending requires stored per-user credentials.
func NewEmailService(
	settings domain.SMTPSettingsRepository,
	newClient EmailClientFactory,
	defaultAPIKey, defaultFrom, defaultFromName string,
) *EmailService {
	return &EmailService{
		settings:        settings,
		newClient:       newClient,
		defaultAPIKey:   defaultAPIKey,
		defaultFrom:     defaultFrom,
		defaultFromName: defaultFromName,
	}
}

// resolveSender picks the API key and From identity for a user: stored
// settings win, the configured defaults back them up.
func (s *EmailService) resolveSender(ctx context.Context, userID string) (apiKey, from, fromName string, err error) {
	settings, err := s.settings.GetDefaultByUserID(ctx, userID)
	switch {
	case err == nil:
		return settings.APIKey, settings.SenderEmail, settings.SenderName, nil
	case errors.Is(err, domain.ErrNotFound):
		if s.defaultAPIKey == "" {
			return "", "", "", oauth2errors.NewNotFound("No SMTP credentials stored and no default sender configured")
		}
		return s.defaultAPIKey, s.defaultFrom, s.defaultFromName, nil
	default:
		return "", "", "", oauth2errors.NewServerError(err.Error())
	}
}

// Send validates and sends a transactional email on behalf of the user.
func (s *EmailService) Send(ctx context.Context, userID string, req api.SendEmailRequest) (*api.SendEmailResponse, error) {
	if len(req.To) == 0 {
		return nil, oauth2errors.NewInvalidRequest("to is required")
	}
	if req.Subject == "" {
		return nil, oauth2errors.NewInvalidRequest("subject is required")
	}
	if req.HTML == "" && req.Text == "" {
		return nil, oauth2errors.NewInvalidRequest("either html or text body is required")
	}

	apiKey, from, fromName, err := s.resolveSender(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.From != "" {
		from = req.From
	}
	if req.FromName != "" {
		fromName = req.FromName
	}
	if from == "" {
		return nil, oauth2errors.NewInvalidRequest("from is required")
	}

	client, err := s.newClient(apiKey)
	if err != nil {
		return nil, oauth2errors.NewServerError(err.Error())
	}

	content := elasticemail.EmailContent{
		From:    elasticemail.Recipient{Email: from, Name: fromName},
		To:      toRecipients(req.To),
		CC:      toRecipients(req.CC),
		BCC:     toRecipients(req.BCC),
		Subject: req.Subject,
		Body:    elasticemail.Body{HTML: req.HTML, Text: req.Text},
	}
	if req.ReplyTo != "" {
		content.ReplyTo = &elasticemail.Recipient{Email: req.ReplyTo}
	}

	result, err := client.SendEmail(ctx, content)
	if err != nil {
		return nil, mapEmailError(err)
	}

	log.Info().Str("user_id", userID).Str("transaction_id", result.TransactionID).
		Int("recipients", len(content.To)).Msg("Email accepted for delivery")

	return &api.SendEmailResponse{
		Success:       true,
		TransactionID: result.TransactionID,
		MessageID:     result.MessageID,
	}, nil
}

func toRecipients(addrs []string) []elasticemail.Recipient {
	if len(addrs) == 0 {
		return nil
	}
	rs := make([]elasticemail.Recipient, 0, len(addrs))
	for _, addr := range addrs {
		rs = append(rs, elasticemail.Recipient{Email: addr})
	}
	return rs
}

// Status resolves the delivery state of a previously sent message.
func (s *EmailService) Status(ctx context.Context, userID, transactionID string) (*elasticemail.EmailStatusInfo, error) {
	if transactionID == "" {
		return nil, oauth2errors.NewInvalidRequest("transaction_id is required")
	}

	apiKey, _, _, err := s.resolveSender(ctx, userID)
	if err != nil {
		return nil, err
	}
	client, err := s.newClient(apiKey)
	if err != nil {
		return nil, oauth2errors.NewServerError(err.Error())
	}

	info, err := client.GetEmailStatus(ctx, transactionID)
	if err != nil {
		return nil, mapEmailError(err)
	}
	return info, nil
}

func mapEmailError(err error) error {
	switch {
	case elasticemail.IsAuthenticationError(err):
		return oauth2errors.NewAccessDenied("Email provider rejected the API key")
	case elasticemail.IsValidationError(err):
		return oauth2errors.NewInvalidRequest(err.Error())
	default:
		return oauth2errors.NewServerError(err.Error())
	}
}
