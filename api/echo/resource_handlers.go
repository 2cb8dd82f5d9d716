package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/smtp-sso/api"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
	"go.pilab.hu/smtp-sso/middleware"
	"go.pilab.hu/smtp-sso/services"
)

// ResourceAPI serves the bearer-protected email and SMTP configuration
// endpoints.
type ResourceAPI struct {
	email       *services.EmailService
	credentials *services.CredentialService
	guard       echo.MiddlewareFunc
}

// NewResourceAPI creates the resource endpoint group. guard is the session
// middleware protecting every route.
func NewResourceAPI(email *services.EmailService, credentials *services.CredentialService, guard echo.MiddlewareFunc) *ResourceAPI {
	return &ResourceAPI{email: email, credentials: credentials, guard: guard}
}

// RegisterRoutes mounts the resource endpoints on the router.
func (a *ResourceAPI) RegisterRoutes(e *echo.Echo) {
	g := e.Group("", a.guard)

	g.POST("/email/send", a.SendEmailHandler)
	g.GET("/email/status/:transaction_id", a.EmailStatusHandler)
	g.POST("/smtp/credentials", a.StoreCredentialsHandler)
	g.GET("/smtp/credentials", a.GetCredentialsHandler)
	g.POST("/projects/configure-smtp", a.ConfigureSMTPHandler)
	g.GET("/projects", a.ListProjectsHandler)
}

// SendEmailHandler sends a transactional email as the authenticated user.
func (a *ResourceAPI) SendEmailHandler(c echo.Context) error {
	var req api.SendEmailRequest
	if err := c.Bind(&req); err != nil {
		return oauth2errors.NewInvalidRequest("Malformed request body")
	}

	resp, err := a.email.Send(c.Request().Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// EmailStatusHandler reports delivery state for a transaction id.
func (a *ResourceAPI) EmailStatusHandler(c echo.Context) error {
	info, err := a.email.Status(c.Request().Context(),
		middleware.UserIDFromContext(c), c.Param("transaction_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// StoreCredentialsHandler provisions SMTP credentials from an Elastic Email
// API key and stores them as the user's default.
func (a *ResourceAPI) StoreCredentialsHandler(c echo.Context) error {
	var req api.StoreCredentialsRequest
	if err := c.Bind(&req); err != nil {
		return oauth2errors.NewInvalidRequest("Malformed request body")
	}

	resp, err := a.credentials.ProvisionCredentials(c.Request().Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetCredentialsHandler returns the stored settings without the password.
func (a *ResourceAPI) GetCredentialsHandler(c echo.Context) error {
	resp, err := a.credentials.GetCredentials(c.Request().Context(), middleware.UserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfigureSMTPHandler pushes the stored SMTP credentials into a Supabase
// project.
func (a *ResourceAPI) ConfigureSMTPHandler(c echo.Context) error {
	var req api.ConfigureSMTPRequest
	if err := c.Bind(&req); err != nil {
		return oauth2errors.NewInvalidRequest("Malformed request body")
	}

	if err := a.credentials.ConfigureProject(c.Request().Context(), middleware.UserIDFromContext(c), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "configured"})
}

// ListProjectsHandler lists the Supabase projects a management token can
// see. The token travels in the X-Supabase-Token header so it never mixes
// with the OAuth bearer credential.
func (a *ResourceAPI) ListProjectsHandler(c echo.Context) error {
	projects, err := a.credentials.ListProjects(c.Request().Context(), c.Request().Header.Get("X-Supabase-Token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// RegisterHealthz mounts the unauthenticated health endpoint.
func RegisterHealthz(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	})
}
