// Package server hosts the HTTP server wrapping the Echo router: error
// rendering, request logging and lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	oauth2errors "go.pilab.hu/smtp-sso/errors"
)

// HTTPServer wraps the Echo instance with sane timeouts and structured
// error rendering.
type HTTPServer struct {
	echo *echo.Echo
	addr string
}

// NewHTTPServer creates a configured but not yet listening server.
func NewHTTPServer(addr string) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = OAuthErrorHandler

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware("smtp-sso"))
	e.Use(requestLogger())

	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	return &HTTPServer{echo: e, addr: addr}
}

// Echo exposes the router for route registration.
func (s *HTTPServer) Echo() *echo.Echo {
	return s.echo
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *HTTPServer) Start() error {
	log.Info().Str("addr", s.addr).Msg("HTTP server listening")

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// OAuthErrorHandler renders every error as the OAuth JSON error shape:
// {error, error_description}. Unrecognized errors become server_error with
// the underlying message attached, never swallowed.
func OAuthErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var oauthErr *oauth2errors.OAuth2Error
	if !errors.As(err, &oauthErr) {
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.Code == http.StatusMethodNotAllowed:
			oauthErr = oauth2errors.NewMethodNotAllowed()
		case errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound:
			oauthErr = oauth2errors.NewNotFound("Resource not found")
		default:
			log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
			oauthErr = oauth2errors.NewServerError(err.Error())
		}
	}

	if writeErr := c.JSON(oauthErr.StatusCode(), oauthErr); writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("Request handled")

			// The error is already rendered; returning it again would
			// double-invoke the error handler.
			return nil
		}
	}
}
