package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/smtp-sso/api"
	"go.pilab.hu/smtp-sso/cache"
	"go.pilab.hu/smtp-sso/domain"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
	"go.pilab.hu/smtp-sso/internal/pkce"
	"go.pilab.hu/smtp-sso/internal/random"
)

// Token and code lifetimes. Expiry is enforced lazily on lookup; the
// optional sweeper only reclaims storage.
const (
	AuthCodeLifetime     = 10 * time.Minute
	AccessTokenLifetime  = time.Hour
	RefreshTokenLifetime = 30 * 24 * time.Hour
)

// DemoUserID is the fixed identity handed to unauthenticated authorize
// requests when the demo-user fallback is enabled. Development affordance
// only, gated behind configuration.
const DemoUserID = "00000000-0000-0000-0000-000000000001"

// DefaultScope is applied when an authorization request carries no scope.
const DefaultScope = "smtp:write"

// OAuthService implements the authorization-code-with-PKCE flow: code
// issuance, code exchange and refresh. It is stateless across calls, all
// state lives in the repositories.
type OAuthService struct {
	codes    domain.AuthCodeRepository
	sessions domain.SessionRepository
	cache    cache.SessionCache
	clients  domain.ClientRegistry

	allowDemoUser bool
}

// NewOAuthService creates the OAuth flow service.
func NewOAuthService(
	codes domain.AuthCodeRepository,
	sessions domain.SessionRepository,
	sessionCache cache.SessionCache,
	clients domain.ClientRegistry,
	allowDemoUser bool,
) *OAuthService {
	return &OAuthService{
		codes:         codes,
		sessions:      sessions,
		cache:         sessionCache,
		clients:       clients,
		allowDemoUser: allowDemoUser,
	}
}

// AuthorizeParams is a validated-enough authorization request: the
// transport layer binds the query parameters and resolves the caller
// identity, everything else is checked here.
type AuthorizeParams struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string

	// UserID is the identity resolved from the caller's bearer token.
	// Empty means anonymous.
	UserID string
}

// Authorize validates an authorization request, issues a code and returns
// the redirect URL the caller should be sent to. Validation failures are
// returned as OAuth2Errors, first failure wins.
func (s *OAuthService) Authorize(ctx context.Context, p AuthorizeParams) (string, error) {
	if p.ClientID == "" {
		return "", oauth2errors.NewInvalidRequest("client_id is required")
	}
	if p.RedirectURI == "" {
		return "", oauth2errors.NewInvalidRequest("redirect_uri is required")
	}
	if p.ResponseType != "code" {
		return "", oauth2errors.NewUnsupportedResponseType()
	}

	if _, err := s.clients.ResolveClient(ctx, p.ClientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", oauth2errors.NewUnauthorizedClient("Unknown client")
		}
		return "", oauth2errors.NewServerError(err.Error())
	}

	redirectURL, err := url.Parse(p.RedirectURI)
	if err != nil {
		return "", oauth2errors.NewInvalidRequest("Invalid redirect_uri")
	}
	switch redirectURL.Scheme {
	case "http", "https", "file":
	default:
		return "", oauth2errors.NewInvalidRequest("Invalid redirect_uri scheme")
	}

	if p.CodeChallenge == "" {
		log.Warn().Str("client_id", p.ClientID).
			Msg("Authorization request without PKCE challenge")
	}

	userID := p.UserID
	if userID == "" {
		if !s.allowDemoUser {
			return "", oauth2errors.NewAccessDenied("Authentication required")
		}
		userID = DemoUserID
		log.Warn().Str("client_id", p.ClientID).
			Msg("Anonymous authorize request, falling back to demo user")
	}

	scope := p.Scope
	if scope == "" {
		scope = DefaultScope
	}
	method := p.CodeChallengeMethod
	if p.CodeChallenge != "" && method == "" {
		method = pkce.MethodS256
	}

	code, err := random.Code()
	if err != nil {
		return "", oauth2errors.NewServerError(err.Error())
	}

	now := time.Now()
	authCode := &domain.AuthCode{
		Code:                code,
		ClientID:            p.ClientID,
		UserID:              userID,
		RedirectURI:         p.RedirectURI,
		Scope:               scope,
		ExpiresAt:           now.Add(AuthCodeLifetime),
		CreatedAt:           now,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: method,
	}
	if err := s.codes.SaveAuthCode(ctx, authCode); err != nil {
		log.Error().Err(err).Str("client_id", p.ClientID).
			Msg("Failed to store authorization code")
		return "", oauth2errors.NewServerError(err.Error())
	}

	log.Info().Str("client_id", p.ClientID).Str("user_id", userID).
		Str("scope", scope).Msg("Authorization code issued")

	query := redirectURL.Query()
	query.Set("code", code)
	if p.State != "" {
		query.Set("state", p.State)
	}
	redirectURL.RawQuery = query.Encode()

	return redirectURL.String(), nil
}

// ExchangeParams is an authorization_code grant from an already
// authenticated client.
type ExchangeParams struct {
	ClientID     string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// ExchangeAuthorizationCode redeems a code for a token pair. The code is
// consumed atomically up front, so a code that fails any later check is
// burnt and cannot be retried.
func (s *OAuthService) ExchangeAuthorizationCode(ctx context.Context, p ExchangeParams) (*api.TokenResponse, error) {
	if p.Code == "" {
		return nil, oauth2errors.NewInvalidRequest("code is required")
	}
	if p.RedirectURI == "" {
		return nil, oauth2errors.NewInvalidRequest("redirect_uri is required")
	}

	authCode, err := s.codes.ConsumeAuthCode(ctx, p.Code, p.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oauth2errors.NewInvalidGrant("Invalid authorization code")
		}
		return nil, oauth2errors.NewServerError(err.Error())
	}

	now := time.Now()
	if authCode.Expired(now) {
		return nil, oauth2errors.NewInvalidGrant("Authorization code has expired")
	}
	if authCode.RedirectURI != p.RedirectURI {
		return nil, oauth2errors.NewInvalidGrant("Redirect URI mismatch")
	}
	if authCode.CodeChallenge != "" {
		if p.CodeVerifier == "" {
			return nil, oauth2errors.NewInvalidRequest("code_verifier is required")
		}
		if !pkce.VerifyChallenge(p.CodeVerifier, authCode.CodeChallenge, authCode.CodeChallengeMethod) {
			return nil, oauth2errors.NewInvalidGrant("Invalid code verifier")
		}
	}

	session, err := s.mintSession(ctx, authCode.UserID, authCode.ClientID, authCode.Scope, now)
	if err != nil {
		return nil, err
	}

	log.Info().Str("client_id", p.ClientID).Str("user_id", session.UserID).
		Str("session_id", session.ID).Msg("Authorization code exchanged")

	return tokenResponse(session), nil
}

// RefreshToken mints a fresh access token for an unexpired refresh token.
// The refresh token itself is not rotated.
func (s *OAuthService) RefreshToken(ctx context.Context, clientID, refreshToken string) (*api.TokenResponse, error) {
	if refreshToken == "" {
		return nil, oauth2errors.NewInvalidRequest("refresh_token is required")
	}

	session, err := s.sessions.GetSessionByRefreshToken(ctx, refreshToken, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oauth2errors.NewInvalidGrant("Invalid refresh token")
		}
		return nil, oauth2errors.NewServerError(err.Error())
	}

	now := time.Now()
	if session.RefreshExpired(now) {
		return nil, oauth2errors.NewInvalidGrant("Refresh token has expired")
	}

	accessToken, err := random.Token()
	if err != nil {
		return nil, oauth2errors.NewServerError(err.Error())
	}
	expiresAt := now.Add(AccessTokenLifetime)

	if err := s.sessions.UpdateAccessToken(ctx, session.ID, accessToken, expiresAt); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oauth2errors.NewInvalidGrant("Invalid refresh token")
		}
		return nil, oauth2errors.NewServerError(err.Error())
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, session.AccessToken)
	}
	session.AccessToken = accessToken
	session.ExpiresAt = expiresAt
	s.cacheSession(ctx, session)

	log.Info().Str("client_id", clientID).Str("session_id", session.ID).
		Msg("Access token refreshed")

	return tokenResponse(session), nil
}

// ValidateAccessToken resolves a bearer token to its session, cache first.
// Expired or unknown tokens yield invalid_token.
func (s *OAuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*domain.Session, error) {
	if accessToken == "" {
		return nil, oauth2errors.NewInvalidToken("Missing access token")
	}

	now := time.Now()
	if s.cache != nil {
		if session, ok := s.cache.GetByAccessToken(ctx, accessToken); ok {
			if session.AccessExpired(now) {
				return nil, oauth2errors.NewInvalidToken("Access token has expired")
			}
			return session, nil
		}
	}

	session, err := s.sessions.GetSessionByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oauth2errors.NewInvalidToken("Invalid access token")
		}
		return nil, oauth2errors.NewServerError(err.Error())
	}
	if session.AccessExpired(now) {
		return nil, oauth2errors.NewInvalidToken("Access token has expired")
	}

	s.cacheSession(ctx, session)

	return session, nil
}

// SweepExpired removes expired codes and sessions from the store. Storage
// hygiene only, correctness never depends on it running.
func (s *OAuthService) SweepExpired(ctx context.Context) error {
	if err := s.codes.DeleteExpiredAuthCodes(ctx); err != nil {
		return fmt.Errorf("failed to sweep authorization codes: %w", err)
	}
	if err := s.sessions.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}
	return nil
}

func (s *OAuthService) mintSession(ctx context.Context, userID, clientID, scope string, now time.Time) (*domain.Session, error) {
	accessToken, err := random.Token()
	if err != nil {
		return nil, oauth2errors.NewServerError(err.Error())
	}
	refreshToken, err := random.Token()
	if err != nil {
		return nil, oauth2errors.NewServerError(err.Error())
	}

	session := &domain.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		ClientID:         clientID,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        domain.TokenTypeBearer,
		Scope:            scope,
		ExpiresAt:        now.Add(AccessTokenLifetime),
		RefreshExpiresAt: now.Add(RefreshTokenLifetime),
		CreatedAt:        now,
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Failed to store session")
		return nil, oauth2errors.NewServerError(err.Error())
	}

	s.cacheSession(ctx, session)

	return session, nil
}

func (s *OAuthService) cacheSession(ctx context.Context, session *domain.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, session); err != nil {
		log.Debug().Err(err).Msg("Failed to cache session")
	}
}

func tokenResponse(session *domain.Session) *api.TokenResponse {
	return &api.TokenResponse{
		AccessToken:  session.AccessToken,
		TokenType:    session.TokenType,
		ExpiresIn:    int(AccessTokenLifetime / time.Second),
		RefreshToken: session.RefreshToken,
		Scope:        session.Scope,
	}
}
