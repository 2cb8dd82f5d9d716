// Package middleware provides the bearer-token guards for the HTTP surface.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/smtp-sso/clients/supabase"
	"go.pilab.hu/smtp-sso/domain"
	"go.pilab.hu/smtp-sso/services"
)

// Context keys set by the guards.
const (
	SessionContextKey = "oauth_session"
	UserIDContextKey  = "user_id"
)

// ExtractBearerToken pulls the token out of an Authorization header value.
// The header must be exactly two space-separated parts with a literal
// "Bearer" prefix; anything else yields the empty string.
func ExtractBearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireSession guards resource endpoints with an access token issued by
// the token endpoint. On success the session and its user id are stored on
// the request context.
func RequireSession(oauth *services.OAuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

			session, err := oauth.ValidateAccessToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(SessionContextKey, session)
			c.Set(UserIDContextKey, session.UserID)

			return next(c)
		}
	}
}

// ResolveIdentity verifies an optional Supabase identity token and stores
// the user id on the context when present. It never rejects the request;
// the authorize handler decides what an anonymous caller gets.
func ResolveIdentity(verifier *supabase.IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token != "" && verifier != nil {
				identity, err := verifier.Verify(token)
				if err != nil {
					log.Debug().Err(err).Msg("Identity token did not verify, treating caller as anonymous")
				} else {
					c.Set(UserIDContextKey, identity.UserID)
				}
			}
			return next(c)
		}
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(c echo.Context) *domain.Session {
	session, _ := c.Get(SessionContextKey).(*domain.Session)
	return session
}

// UserIDFromContext returns the user id stored by either guard, or "".
func UserIDFromContext(c echo.Context) string {
	userID, _ := c.Get(UserIDContextKey).(string)
	return userID
}
