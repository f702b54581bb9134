package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case CRITICAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLogLevel maps a flag value to a level; unknown values mean INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

// Logger is a leveled printf-style logger on top of logrus.
// Loggers derived with WithField share the parent's output and level.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

func NewFileLogger(filePath string, minLevel LogLevel, alsoStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	var out io.Writer = f
	if alsoStdout {
		out = io.MultiWriter(f, os.Stdout)
	}
	l := NewLogger(out, minLevel)
	l.file = f
	return l, nil
}

// NewLogger writes text records to w.
func NewLogger(w io.Writer, minLevel LogLevel) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(minLevel.logrus())
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	return &Logger{entry: logrus.NewEntry(base)}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return NewLogger(io.Discard, CRITICAL)
}

// WithField returns a child logger that tags every record with key=value.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) SetMinLevel(level LogLevel) {
	l.entry.Logger.SetLevel(level.logrus())
}

// Enabled reports whether records at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l.entry.Logger.IsLevelEnabled(level.logrus())
}

func (l *Logger) Trace(msg string, args ...any) { l.entry.Tracef(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.entry.Debugf(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.entry.Infof(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.entry.Warnf(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.entry.Errorf(msg, args...) }

// Critical records at fatal severity without exiting; the caller decides.
func (l *Logger) Critical(msg string, args ...any) { l.entry.Logf(logrus.FatalLevel, msg, args...) }
