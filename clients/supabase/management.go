// Package supabase holds the glue toward the Supabase platform: the
// Management API used to push SMTP settings into a project, and local
// verification of Supabase Auth identity tokens.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultManagementBaseURL is the public Supabase Management API.
const DefaultManagementBaseURL = "https://api.supabase.com"

const managementTimeout = 30 * time.Second

// ManagementClient calls the Supabase Management API with a caller-supplied
// management token per request; the server never holds one of its own.
type ManagementClient struct {
	baseURL    string
	httpClient *http.Client
}

// ManagementOption configures a ManagementClient.
type ManagementOption func(*ManagementClient)

// WithManagementBaseURL overrides the API endpoint.
func WithManagementBaseURL(url string) ManagementOption {
	return func(c *ManagementClient) { c.baseURL = url }
}

// WithManagementHTTPClient overrides the underlying HTTP client.
func WithManagementHTTPClient(hc *http.Client) ManagementOption {
	return func(c *ManagementClient) { c.httpClient = hc }
}

// NewManagementClient creates a Management API client.
func NewManagementClient(opts ...ManagementOption) *ManagementClient {
	c := &ManagementClient{
		baseURL:    DefaultManagementBaseURL,
		httpClient: &http.Client{Timeout: managementTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ManagementError is a non-2xx answer from the Management API.
type ManagementError struct {
	StatusCode int
	Body       string
}

func (e *ManagementError) Error() string {
	return fmt.Sprintf("management api error (%d): %s", e.StatusCode, e.Body)
}

// Project is one entry of the caller's project list.
type Project struct {
	ID             string `json:"id"`
	Ref            string `json:"ref"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	Region         string `json:"region"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// SMTPConfig is the auth SMTP section of a project's configuration.
type SMTPConfig struct {
	AdminEmail   string `json:"smtp_admin_email"`
	Host         string `json:"smtp_host"`
	Port         int    `json:"smtp_port"`
	User         string `json:"smtp_user"`
	Pass         string `json:"smtp_pass"`
	SenderName   string `json:"smtp_sender_name,omitempty"`
	MaxFrequency int    `json:"smtp_max_frequency"`
}

func (c *ManagementClient) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("management api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read management api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).
			Msg("Management API call failed")
		return &ManagementError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode management api response: %w", err)
		}
	}
	return nil
}

// ListProjects returns the projects visible to the management token.
func (c *ManagementClient) ListProjects(ctx context.Context, token string) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects", token, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ConfigureProjectSMTP patches the auth configuration of a project with the
// given SMTP settings.
func (c *ManagementClient) ConfigureProjectSMTP(ctx context.Context, token, projectRef string, cfg SMTPConfig) error {
	if cfg.Host == "" {
		cfg.Host = "smtp.elasticemail.com"
	}
	if cfg.MaxFrequency == 0 {
		cfg.MaxFrequency = 60
	}

	path := fmt.Sprintf("/v1/projects/%s/config/auth", projectRef)
	if err := c.do(ctx, http.MethodPatch, path, token, cfg, nil); err != nil {
		return err
	}

	log.Info().Str("project_ref", projectRef).Msg("Project SMTP configuration updated")
	return nil
}
