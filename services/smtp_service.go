package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/smtp-sso/api"
	"go.pilab.hu/smtp-sso/clients/elasticemail"
	"go.pilab.hu/smtp-sso/clients/supabase"
	"go.pilab.hu/smtp-sso/domain"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
)

// EmailClientFactory builds an Elastic Email client for a caller-supplied
// API key. Injectable so tests can point the client at a local server.
type EmailClientFactory func(apiKey string) (*elasticemail.Client, error)

// DefaultEmailClientFactory talks to the real Elastic Email endpoints.
func DefaultEmailClientFactory(apiKey string) (*elasticemail.Client, error) {
	return elasticemail.NewClient(apiKey)
}

// CredentialService provisions SMTP credentials from an Elastic Email API
// key, stores them per user, and pushes them into Supabase projects.
type CredentialService struct {
	settings   domain.SMTPSettingsRepository
	newClient  EmailClientFactory
	management *supabase.ManagementClient
}

// NewCredentialService creates the credential service.
func NewCredentialService(
	settings domain.SMTPSettingsRepository,
	newClient EmailClientFactory,
	management *supabase.ManagementClient,
) *CredentialService {
	return &CredentialService{
		settings:   settings,
		newClient:  newClient,
		management: management,
	}
}

// ProvisionCredentials validates the API key against the Elastic Email
// account endpoint, mints a dedicated SMTP credential and stores the result
// as the user's default settings. The SMTP password is returned only here.
func (s *CredentialService) ProvisionCredentials(ctx context.Context, userID string, req api.StoreCredentialsRequest) (*api.SMTPCredentialsResponse, error) {
	if req.APIKey == "" {
		return nil, oauth2errors.NewInvalidRequest("api_key is required")
	}

	client, err := s.newClient(req.APIKey)
	if err != nil {
		return nil, oauth2errors.NewInvalidRequest(err.Error())
	}

	account, err := client.ValidateAccount(ctx)
	if err != nil {
		if elasticemail.IsAuthenticationError(err) {
			return nil, oauth2errors.NewInvalidRequest("Invalid Elastic Email API key")
		}
		log.Error().Err(err).Msg("Elastic Email account validation failed")
		return nil, oauth2errors.NewServerError(err.Error())
	}

	creds := client.GetSMTPCredentials(account.Email)
	password, err := client.GenerateSMTPCredential(ctx, account.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate SMTP credential")
		return nil, oauth2errors.NewServerError(err.Error())
	}

	now := time.Now()
	settings := &domain.SMTPSettings{
		ID:          uuid.NewString(),
		UserID:      userID,
		APIKey:      req.APIKey,
		Username:    creds.Username,
		Password:    password,
		Server:      creds.Server,
		Port:        creds.Port,
		TLSEnabled:  creds.TLSEnabled,
		SenderEmail: account.Email,
		SenderName:  req.SenderName,
		IsDefault:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.settings.UpsertSettings(ctx, settings); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to store SMTP settings")
		return nil, oauth2errors.NewServerError(err.Error())
	}

	log.Info().Str("user_id", userID).Str("smtp_user", creds.Username).
		Msg("SMTP credentials provisioned")

	return &api.SMTPCredentialsResponse{
		Server:     creds.Server,
		Port:       creds.Port,
		Username:   creds.Username,
		Password:   password,
		TLSEnabled: creds.TLSEnabled,
		SenderName: req.SenderName,
	}, nil
}

// GetCredentials returns the user's stored default settings without the
// password.
func (s *CredentialService) GetCredentials(ctx context.Context, userID string) (*api.SMTPCredentialsResponse, error) {
	settings, err := s.settings.GetDefaultByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oauth2errors.NewNotFound("No SMTP credentials stored")
		}
		return nil, oauth2errors.NewServerError(err.Error())
	}

	return &api.SMTPCredentialsResponse{
		Server:     settings.Server,
		Port:       settings.Port,
		Username:   settings.Username,
		TLSEnabled: settings.TLSEnabled,
		SenderName: settings.SenderName,
	}, nil
}

// ConfigureProject pushes the user's stored SMTP credentials into a Supabase
// project using the caller's own management token.
func (s *CredentialService) ConfigureProject(ctx context.Context, userID string, req api.ConfigureSMTPRequest) error {
	if req.ManagementToken == "" {
		return oauth2errors.NewInvalidRequest("management_token is required")
	}
	if req.ProjectRef == "" {
		return oauth2errors.NewInvalidRequest("project_ref is required")
	}

	settings, err := s.settings.GetDefaultByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return oauth2errors.NewNotFound("No SMTP credentials stored, provision credentials first")
		}
		return oauth2errors.NewServerError(err.Error())
	}

	adminEmail := req.AdminEmail
	if adminEmail == "" {
		adminEmail = settings.SenderEmail
	}
	senderName := req.SenderName
	if senderName == "" {
		senderName = settings.SenderName
	}

	err = s.management.ConfigureProjectSMTP(ctx, req.ManagementToken, req.ProjectRef, supabase.SMTPConfig{
		AdminEmail: adminEmail,
		Host:       settings.Server,
		Port:       settings.Port,
		User:       settings.Username,
		Pass:       settings.Password,
		SenderName: senderName,
	})
	if err != nil {
		return mapManagementError(err)
	}
	return nil
}

// ListProjects returns the Supabase projects visible to a management token.
func (s *CredentialService) ListProjects(ctx context.Context, managementToken string) ([]supabase.Project, error) {
	if managementToken == "" {
		return nil, oauth2errors.NewInvalidRequest("management_token is required")
	}

	projects, err := s.management.ListProjects(ctx, managementToken)
	if err != nil {
		return nil, mapManagementError(err)
	}
	return projects, nil
}

func mapManagementError(err error) error {
	var mgmtErr *supabase.ManagementError
	if errors.As(err, &mgmtErr) {
		switch mgmtErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return oauth2errors.NewAccessDenied("Management token rejected")
		case http.StatusNotFound:
			return oauth2errors.NewNotFound("Project not found")
		}
	}
	return oauth2errors.NewServerError(err.Error())
}
