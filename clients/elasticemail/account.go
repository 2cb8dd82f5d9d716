package elasticemail

import (
	"context"
	"fmt"
	"net/http"
)

// Relay endpoint handed to users; the SMTP password is the access token
// minted by GenerateSMTPCredential, not the account API key.
const (
	SMTPServer = "smtp.elasticemail.com"
	SMTPPort   = 587
)

type accountResponse struct {
	Email           string  `json:"Email"`
	PublicAccountID string  `json:"PublicAccountID"`
	IsSubAccount    bool    `json:"IsSubAccount"`
	Reputation      float64 `json:"Reputation"`
	Profile         *struct {
		Email string `json:"Email"`
	} `json:"Profile"`
}

// ValidateAccount checks the API key against the relay account endpoint and
// returns the account behind it.
func (c *Client) ValidateAccount(ctx context.Context) (*Account, error) {
	var resp accountResponse
	if err := c.request(ctx, http.MethodGet, c.relayBaseURL+"/v3/account", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to validate Elastic Email API key: %w", err)
	}

	email := resp.Email
	if resp.Profile != nil && resp.Profile.Email != "" {
		email = resp.Profile.Email
	}
	return &Account{
		Email:           email,
		PublicAccountID: resp.PublicAccountID,
		IsSubAccount:    resp.IsSubAccount,
		Reputation:      resp.Reputation,
	}, nil
}

// GetSMTPCredentials returns the relay endpoint configuration for an
// account email.
func (c *Client) GetSMTPCredentials(accountEmail string) SMTPCredentials {
	return SMTPCredentials{
		Username:   accountEmail,
		Server:     SMTPServer,
		Port:       SMTPPort,
		TLSEnabled: true,
	}
}

type accessTokenRequest struct {
	TokenName   string   `json:"TokenName"`
	AccessLevel []string `json:"AccessLevel"`
	Type        string   `json:"Type"`
}

type accessTokenResponse struct {
	Token string `json:"Token"`
	Name  string `json:"Name"`
}

// GenerateSMTPCredential mints an SMTP-only access token for the account;
// the returned value is the SMTP password.
func (c *Client) GenerateSMTPCredential(ctx context.Context, email string) (string, error) {
	payload := accessTokenRequest{
		TokenName:   email,
		AccessLevel: []string{"SendSmtp"},
		Type:        "SMTPCredential",
	}

	var resp accessTokenResponse
	url := c.tokenBaseURL + "/v3/security/accesstokens"
	if err := c.request(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return "", fmt.Errorf("failed to generate SMTP credential: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("SMTP credential response carried no token")
	}
	return resp.Token, nil
}
