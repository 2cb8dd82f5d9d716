package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/smtp-sso/api"
	"go.pilab.hu/smtp-sso/clients/elasticemail"
	"go.pilab.hu/smtp-sso/clients/supabase"
	"go.pilab.hu/smtp-sso/domain"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
	"go.pilab.hu/smtp-sso/inmemory"
)

// elasticStub answers the account, token and send endpoints the services
// traverse.
func elasticStub(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-ElasticEmail-ApiKey") == "bad-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Error":"Incorrect apikey"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v3/account":
			_, _ = w.Write([]byte(`{"Email":"owner@example.com","PublicAccountID":"pub-1","Reputation":98.5}`))
		case "/v3/security/accesstokens":
			_, _ = w.Write([]byte(`{"Token":"smtp-pass-123","Name":"owner@example.com"}`))
		case "/emails/transactional":
			_, _ = w.Write([]byte(`{"TransactionID":"tx-1","MessageID":"msg-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func stubFactory(srv *httptest.Server) EmailClientFactory {
	return func(apiKey string) (*elasticemail.Client, error) {
		return elasticemail.NewClient(apiKey,
			elasticemail.WithBaseURL(srv.URL),
			elasticemail.WithRelayBaseURL(srv.URL),
			elasticemail.WithTokenBaseURL(srv.URL),
		)
	}
}

func TestProvisionCredentials(t *testing.T) {
	srv := elasticStub(t)
	defer srv.Close()

	repo := inmemory.NewSMTPSettingsRepository()
	svc := NewCredentialService(repo, stubFactory(srv), supabase.NewManagementClient())

	resp, err := svc.ProvisionCredentials(context.Background(), "user-1", api.StoreCredentialsRequest{
		APIKey:     "good-key",
		SenderName: "Owner",
	})
	require.NoError(t, err)
	assert.Equal(t, elasticemail.SMTPServer, resp.Server)
	assert.Equal(t, elasticemail.SMTPPort, resp.Port)
	assert.Equal(t, "owner@example.com", resp.Username)
	assert.Equal(t, "smtp-pass-123", resp.Password)
	assert.True(t, resp.TLSEnabled)

	stored, err := repo.GetDefaultByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "good-key", stored.APIKey)
	assert.Equal(t, "smtp-pass-123", stored.Password)
	assert.True(t, stored.IsDefault)
}

func TestProvisionCredentialsBadKey(t *testing.T) {
	srv := elasticStub(t)
	defer srv.Close()

	svc := NewCredentialService(inmemory.NewSMTPSettingsRepository(), stubFactory(srv), supabase.NewManagementClient())

	_, err := svc.ProvisionCredentials(context.Background(), "user-1", api.StoreCredentialsRequest{APIKey: "bad-key"})
	requireOAuthError(t, err, oauth2errors.InvalidRequest)
}

func TestGetCredentialsOmitsPassword(t *testing.T) {
	repo := inmemory.NewSMTPSettingsRepository()
	now := time.Now()
	require.NoError(t, repo.UpsertSettings(context.Background(), &domain.SMTPSettings{
		ID:          "settings-1",
		UserID:      "user-1",
		APIKey:      "good-key",
		Username:    "owner@example.com",
		Password:    "smtp-pass-123",
		Server:      elasticemail.SMTPServer,
		Port:        elasticemail.SMTPPort,
		TLSEnabled:  true,
		SenderEmail: "owner@example.com",
		IsDefault:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	svc := NewCredentialService(repo, nil, supabase.NewManagementClient())

	resp, err := svc.GetCredentials(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", resp.Username)
	assert.Empty(t, resp.Password)

	_, err = svc.GetCredentials(context.Background(), "user-2")
	requireOAuthError(t, err, oauth2errors.NotFound)
}

func TestConfigureProject(t *testing.T) {
	var patched map[string]any
	mgmt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v1/projects/ref-1/config/auth", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		w.WriteHeader(http.StatusOK)
	}))
	defer mgmt.Close()

	repo := inmemory.NewSMTPSettingsRepository()
	require.NoError(t, repo.UpsertSettings(context.Background(), &domain.SMTPSettings{
		ID:          "settings-1",
		UserID:      "user-1",
		Username:    "owner@example.com",
		Password:    "smtp-pass-123",
		Server:      elasticemail.SMTPServer,
		Port:        elasticemail.SMTPPort,
		SenderEmail: "owner@example.com",
		IsDefault:   true,
	}))

	svc := NewCredentialService(repo, nil,
		supabase.NewManagementClient(supabase.WithManagementBaseURL(mgmt.URL)))

	err := svc.ConfigureProject(context.Background(), "user-1", api.ConfigureSMTPRequest{
		ManagementToken: "sbp_token",
		ProjectRef:      "ref-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.elasticemail.com", patched["smtp_host"])
	assert.Equal(t, "owner@example.com", patched["smtp_user"])
	assert.Equal(t, "smtp-pass-123", patched["smtp_pass"])
	assert.Equal(t, "owner@example.com", patched["smtp_admin_email"])
	assert.Equal(t, float64(60), patched["smtp_max_frequency"])
}

func TestConfigureProjectWithoutCredentials(t *testing.T) {
	svc := NewCredentialService(inmemory.NewSMTPSettingsRepository(), nil, supabase.NewManagementClient())

	err := svc.ConfigureProject(context.Background(), "user-1", api.ConfigureSMTPRequest{
		ManagementToken: "sbp_token",
		ProjectRef:      "ref-1",
	})
	requireOAuthError(t, err, oauth2errors.NotFound)
}

func TestConfigureProjectRejectedToken(t *testing.T) {
	mgmt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer mgmt.Close()

	repo := inmemory.NewSMTPSettingsRepository()
	require.NoError(t, repo.UpsertSettings(context.Background(), &domain.SMTPSettings{
		ID:        "settings-1",
		UserID:    "user-1",
		IsDefault: true,
	}))

	svc := NewCredentialService(repo, nil,
		supabase.NewManagementClient(supabase.WithManagementBaseURL(mgmt.URL)))

	err := svc.ConfigureProject(context.Background(), "user-1", api.ConfigureSMTPRequest{
		ManagementToken: "bogus",
		ProjectRef:      "ref-1",
	})
	requireOAuthError(t, err, oauth2errors.AccessDenied)
}
