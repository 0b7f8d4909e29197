package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/teeforge-backend/pkg/env"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Level is a zerolog level name; empty or unknown means info.
	Level     string
	WarnStack bool
	Output    io.Writer
	// Format is "json" or "console"; empty reads TEEFORGE_LOG_FORMAT.
	Format string
}

// Logger writes JSON entries enriched with fields carried on the context.
// A nil *Logger discards everything.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type requestIDKey struct{}

func New(opts Options) *Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.First("json", "TEEFORGE_LOG_FORMAT", "LOG_FORMAT")
	}
	if strings.EqualFold(format, "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(output).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// entry returns the context-scoped logger stored by the With* helpers, or the
// base logger when none is attached.
func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if scoped := zerolog.Ctx(ctx); scoped.GetLevel() != zerolog.Disabled {
			return scoped
		}
	}
	return &l.base
}

func (l *Logger) with(ctx context.Context, add func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		return ctx
	}
	scoped := add(l.entry(ctx).With()).Logger()
	return scoped.WithContext(ctx)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

// WithRequestID tags entries with the request id and keeps it readable
// through RequestIDFrom for error envelopes.
func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	return l.WithField(ctx, "request_id", requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

// WithSessionID tags entries with the order configuration session.
func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	return l.WithField(ctx, "session_id", sessionID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	if l != nil {
		l.entry(ctx).Debug().Msg(msg)
	}
}

func (l *Logger) Info(ctx context.Context, msg string) {
	if l != nil {
		l.entry(ctx).Info().Msg(msg)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	event := l.entry(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always records a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	if l == nil {
		return
	}
	l.entry(ctx).Error().Err(err).Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
