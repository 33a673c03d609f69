package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger — минимальный интерфейс логгера, который внедряется во все слои.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

// SlogLogger реализует Logger поверх log/slog.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создаёт JSON-логгер в stdout. Уровень берётся из LOG_LEVEL (debug, info, warn, error).
func NewSlogLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

func NewSlogLoggerWithWriter(w io.Writer, level string) *SlogLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &SlogLogger{log: slog.New(handler)}
}

func (l *SlogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		l.log.Error(fmt.Sprintf(format, args...))
		return
	}

	l.log.Error(fmt.Sprintf(format, args...), slog.String("error", err.Error()))
}

// With возвращает логгер с дополнительными атрибутами (например, session_id).
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{log: l.log.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Nop — логгер, который ничего не пишет. Используется в тестах.
type Nop struct{}

func (Nop) Debugf(string, ...any)        {}
func (Nop) Infof(string, ...any)         {}
func (Nop) Warnf(string, ...any)         {}
func (Nop) Errorf(error, string, ...any) {}
