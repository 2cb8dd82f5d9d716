// Package api defines the wire-level request and response shapes of the
// HTTP surface. Transport handlers bind onto these; services return them.
package api

// AuthorizeRequest carries the query parameters of an authorization request.
type AuthorizeRequest struct {
	ClientID            string `query:"client_id"             json:"client_id"`
	RedirectURI         string `query:"redirect_uri"          json:"redirect_uri"`
	ResponseType        string `query:"response_type"         json:"response_type"`
	State               string `query:"state"                 json:"state"`
	Scope               string `query:"scope"                 json:"scope"`
	CodeChallenge       string `query:"code_challenge"        json:"code_challenge"`
	CodeChallengeMethod string `query:"code_challenge_method" json:"code_challenge_method"`
}

// TokenRequest is the body of a token endpoint call, accepted either as
// JSON or as a URL-encoded form.
type TokenRequest struct {
	GrantType    string `json:"grant_type"    form:"grant_type"`
	Code         string `json:"code"          form:"code"`
	RedirectURI  string `json:"redirect_uri"  form:"redirect_uri"`
	ClientID     string `json:"client_id"     form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
	CodeVerifier string `json:"code_verifier" form:"code_verifier"`
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// TokenResponse is the successful answer of the token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope,omitempty"`
}

// SendEmailRequest is the body of the email-sending resource endpoint.
type SendEmailRequest struct {
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	HTML     string   `json:"html,omitempty"`
	Text     string   `json:"text,omitempty"`
	From     string   `json:"from,omitempty"`
	FromName string   `json:"from_name,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
}

// SendEmailResponse echoes the provider's transaction identifiers.
type SendEmailResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id,omitempty"`
}

// StoreCredentialsRequest provisions SMTP credentials from an Elastic Email
// API key.
type StoreCredentialsRequest struct {
	APIKey     string `json:"api_key"`
	SenderName string `json:"sender_name,omitempty"`
}

// SMTPCredentialsResponse describes the stored SMTP settings. The password
// is only returned at provisioning time.
type SMTPCredentialsResponse struct {
	Server     string `json:"server"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	TLSEnabled bool   `json:"tls_enabled"`
	SenderName string `json:"sender_name,omitempty"`
}

// ConfigureSMTPRequest pushes the caller's stored SMTP credentials into a
// Supabase project. The management token is the caller's own.
type ConfigureSMTPRequest struct {
	ManagementToken string `json:"management_token"`
	ProjectRef      string `json:"project_ref"`
	AdminEmail      string `json:"admin_email"`
	SenderName      string `json:"sender_name,omitempty"`
}

// HealthResponse is the healthz payload.
type HealthResponse struct {
	Status string `json:"status"`
}
