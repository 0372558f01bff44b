package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger wraps zerolog.Logger with the service name it was created for.
type Logger struct {
	logger  zerolog.Logger
	service string
}

// Init installs the global logger from config.
func Init(cfg Config, service string) *Logger {
	cfg.ApplyDefaults()
	globalLogger = New(&cfg, service)
	return globalLogger
}

// New creates a logger writing to the configured output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zl = zerolog.New(consoleWriter(w, cfg.NoColor))
	default:
		zl = zerolog.New(w).With().Str("service", service).Logger()
	}
	zl = zl.Level(level)

	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	return &Logger{logger: zl, service: service}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// WithContext returns a logger carrying the trace and span IDs of the span
// recorded in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	zc := l.logger.With().
		Str(FieldTraceID, sc.TraceID().String()).
		Str(FieldSpanID, sc.SpanID().String())
	return &Logger{logger: zc.Logger(), service: l.service}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		logger:  l.logger.With().Str(FieldComponent, name).Logger(),
		service: l.service,
	}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), service: l.service}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		logger:  l.logger.With().Err(err).Logger(),
		service: l.service,
	}
}

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	write(l.logger.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	write(l.logger.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	write(l.logger.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	write(l.logger.Error(), msg, fields)
}

var globalLogger *Logger

// SetGlobalLogger sets the global logger instance.
func SetGlobalLogger(l *Logger) { globalLogger = l }

// GetGlobalLogger returns the global logger, or a default console logger
// when Init was never called.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		cfg := Config{}
		cfg.ApplyDefaults()
		globalLogger = New(&cfg, "chatstream")
	}
	return globalLogger
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }

func Info(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Info(msg, fields...) }

func Warn(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Warn(msg, fields...) }

func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent returns a component-tagged logger from the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

func write(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	case "discard":
		return io.Discard
	default:
		return os.Stderr
	}
}

var levelTags = map[string][2]string{
	"trace": {"[TRC]", "\033[90m[TRC]\033[0m"},
	"debug": {"[DBG]", "\033[36m[DBG]\033[0m"},
	"info":  {"[INF]", "\033[32m[INF]\033[0m"},
	"warn":  {"[WRN]", "\033[33m[WRN]\033[0m"},
	"error": {"[ERR]", "\033[31m[ERR]\033[0m"},
}

func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			name := strings.ToLower(fmt.Sprintf("%s", i))
			tag, ok := levelTags[name]
			if !ok {
				return fmt.Sprintf("[%s]", strings.ToUpper(name))
			}
			if noColor {
				return tag[0]
			}
			return tag[1]
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
	}
}
