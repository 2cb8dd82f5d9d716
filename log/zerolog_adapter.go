package log

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// zerologAdapter wraps a zerolog.Logger to implement the Logger interface.
type zerologAdapter struct {
	logger zerolog.Logger
}

// Setup configures the global zerolog logger and returns a Logger over it.
// Pretty output goes through the console writer, otherwise raw JSON.
func Setup(level string, pretty bool) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(lvl).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stderr).
			Level(lvl).
			With().
			Timestamp().
			Logger()
	}

	zlog.Logger = logger
	zerolog.SetGlobalLevel(lvl)

	return &zerologAdapter{logger: logger}
}

// addTraceInfo attaches trace_id and span_id when the context carries a
// valid span.
func addTraceInfo(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event = event.Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}
	return event
}

func (z *zerologAdapter) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	event := addTraceInfo(ctx, z.logger.Debug())
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (z *zerologAdapter) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	event := addTraceInfo(ctx, z.logger.Info())
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (z *zerologAdapter) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	event := addTraceInfo(ctx, z.logger.Warn())
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (z *zerologAdapter) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	event := addTraceInfo(ctx, z.logger.Error().Err(err))
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (z *zerologAdapter) Fatal(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	event := addTraceInfo(ctx, z.logger.Fatal().Err(err))
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

// With returns a new logger carrying the given fields. Trace information is
// added per call so it stays current.
func (z *zerologAdapter) With(fields map[string]interface{}) Logger {
	return &zerologAdapter{logger: z.logger.With().Fields(fields).Logger()}
}
