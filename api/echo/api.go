// Package echoapi wires the OAuth and resource endpoints onto an Echo
// router.
package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/smtp-sso/api"
	"go.pilab.hu/smtp-sso/domain"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
	"go.pilab.hu/smtp-sso/middleware"
	"go.pilab.hu/smtp-sso/services"
)

// OAuth2API serves the authorization-code-with-PKCE endpoints.
type OAuth2API struct {
	oauth    *services.OAuthService
	clients  domain.ClientRegistry
	identity echo.MiddlewareFunc
}

// NewOAuth2API creates the OAuth endpoint group. identity is the optional
// identity-resolving middleware applied to the authorize endpoint; nil
// leaves every authorize request anonymous.
func NewOAuth2API(oauth *services.OAuthService, clients domain.ClientRegistry, identity echo.MiddlewareFunc) *OAuth2API {
	return &OAuth2API{oauth: oauth, clients: clients, identity: identity}
}

// RegisterRoutes mounts the OAuth endpoints on the router.
func (a *OAuth2API) RegisterRoutes(e *echo.Echo) {
	authorize := []echo.MiddlewareFunc{}
	if a.identity != nil {
		authorize = append(authorize, a.identity)
	}
	e.GET("/authorize", a.AuthorizeHandler, authorize...)
	e.POST("/token", a.TokenHandler)
}

// AuthorizeHandler validates an authorization request and redirects back to
// the client with a code. Errors are served as JSON, never redirected.
func (a *OAuth2API) AuthorizeHandler(c echo.Context) error {
	var req api.AuthorizeRequest
	if err := c.Bind(&req); err != nil {
		return oauth2errors.NewInvalidRequest("Malformed authorization request")
	}

	redirect, err := a.oauth.Authorize(c.Request().Context(), services.AuthorizeParams{
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		ResponseType:        req.ResponseType,
		State:               req.State,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		UserID:              middleware.UserIDFromContext(c),
	})
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, redirect)
}

// TokenHandler exchanges a code or refresh token for tokens. The body may
// be JSON or a URL-encoded form; anything else is invalid_request.
func (a *OAuth2API) TokenHandler(c echo.Context) error {
	req, err := bindTokenRequest(c)
	if err != nil {
		return err
	}

	client, err := a.clients.ValidateSecret(c.Request().Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		return oauth2errors.NewInvalidClient("Invalid client credentials")
	}

	switch req.GrantType {
	case "authorization_code":
		resp, err := a.oauth.ExchangeAuthorizationCode(c.Request().Context(), services.ExchangeParams{
			ClientID:     client.ID,
			Code:         req.Code,
			RedirectURI:  req.RedirectURI,
			CodeVerifier: req.CodeVerifier,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)

	case "refresh_token":
		resp, err := a.oauth.RefreshToken(c.Request().Context(), client.ID, req.RefreshToken)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)

	default:
		return oauth2errors.NewUnsupportedGrantType()
	}
}

func bindTokenRequest(c echo.Context) (*api.TokenRequest, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])

	switch mediaType {
	case echo.MIMEApplicationJSON, echo.MIMEApplicationForm:
	default:
		return nil, oauth2errors.NewInvalidRequest("Unsupported content type")
	}

	var req api.TokenRequest
	if err := c.Bind(&req); err != nil {
		return nil, oauth2errors.NewInvalidRequest("Malformed token request")
	}
	return &req, nil
}
