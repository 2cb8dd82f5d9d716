package elasticemail

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/account", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"Profile":         map[string]string{"Email": "owner@example.com"},
			"PublicAccountID": "pub-1",
			"Reputation":      98.5,
		})
	}))

	account, err := client.ValidateAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", account.Email, "profile email wins over top-level email")
	assert.Equal(t, "pub-1", account.PublicAccountID)
}

func TestValidateAccountBadKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ValidateAccount(context.Background())
	assert.True(t, IsAuthenticationError(err))
}

func TestGenerateSMTPCredential(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/security/accesstokens", r.URL.Path)

		var req accessTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "owner@example.com", req.TokenName)
		assert.Equal(t, []string{"SendSmtp"}, req.AccessLevel)
		assert.Equal(t, "SMTPCredential", req.Type)

		json.NewEncoder(w).Encode(map[string]string{"Token": "smtp-password", "Name": req.TokenName})
	}))

	password, err := client.GenerateSMTPCredential(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "smtp-password", password)
}

func TestGetSMTPCredentials(t *testing.T) {
	client, err := NewClient("key")
	require.NoError(t, err)

	creds := client.GetSMTPCredentials("owner@example.com")
	assert.Equal(t, SMTPCredentials{
		Username:   "owner@example.com",
		Server:     "smtp.elasticemail.com",
		Port:       587,
		TLSEnabled: true,
	}, creds)
}
