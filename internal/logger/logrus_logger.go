package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosS-Green/plugins/internal/config"
)

const redacted = "[REDACTED]"

type logrusLogger struct {
	logger logrus.Ext1FieldLogger
}

// NewLogrusLogger builds the application logger. Every secret is masked in
// messages and string or error fields.
func NewLogrusLogger(cfg *config.LoggingConfig, secrets ...string) Logger {
	out := io.Writer(os.Stdout)
	var fileErr error
	if cfg.WriteInFile {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			out = io.MultiWriter(os.Stdout, file)
		}
		fileErr = err
	}

	l := newLogrus(cfg, out, secrets)
	if fileErr != nil {
		l.WithError(fileErr).Warn("Failed to log to file, using stdout only")
	}
	return &logrusLogger{logger: l}
}

func newLogrus(cfg *config.LoggingConfig, out io.Writer, secrets []string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if cfg.IsJSON() {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			DisableQuote:    true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(cfg.Level())
	if err != nil {
		level = logrus.InfoLevel
		defer l.WithField("log_level", cfg.Level()).Warn("Log level not found. Fallback to 'info'")
	}
	l.SetLevel(level)

	if hook := newRedactHook(secrets); hook != nil {
		l.AddHook(hook)
	}
	return l
}

// redactHook masks secrets such as the bot token, which the Bot API client
// includes in request URLs of its errors.
type redactHook struct {
	replacer *strings.Replacer
}

func newRedactHook(secrets []string) *redactHook {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, redacted)
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return &redactHook{replacer: strings.NewReplacer(pairs...)}
}

func (h *redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.replacer.Replace(entry.Message)
	for key, value := range entry.Data {
		switch v := value.(type) {
		case string:
			entry.Data[key] = h.replacer.Replace(v)
		case error:
			if masked := h.replacer.Replace(v.Error()); masked != v.Error() {
				entry.Data[key] = errors.New(masked)
			}
		}
	}
	return nil
}

func (l *logrusLogger) Trace(args ...any) {
	l.logger.Trace(args...)
}

func (l *logrusLogger) Debug(args ...any) {
	l.logger.Debug(args...)
}

func (l *logrusLogger) Info(args ...any) {
	l.logger.Info(args...)
}

func (l *logrusLogger) Warn(args ...any) {
	l.logger.Warn(args...)
}

func (l *logrusLogger) Error(args ...any) {
	l.logger.Error(args...)
}

func (l *logrusLogger) Fatal(args ...any) {
	l.logger.Fatal(args...)
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{
		logger: l.logger.WithFields(logrus.Fields(fields)),
	}
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{
		logger: l.logger.WithField(key, value),
	}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{
		logger: l.logger.WithError(err),
	}
}
