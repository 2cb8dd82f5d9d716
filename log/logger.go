package log

import "context"

// Logger defines a standard interface for logging, keeping call sites
// independent of the concrete logging library.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	With(fields map[string]interface{}) Logger
}
