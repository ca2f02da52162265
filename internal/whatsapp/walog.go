package whatsapp

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// slogLogger adapts *slog.Logger to the whatsmeow logger interface.
type slogLogger struct {
	logger *slog.Logger
}

func newWALogger(log *slog.Logger, module string) waLog.Logger {
	return &slogLogger{logger: log.With(slog.String("wa_module", module))}
}

func (l *slogLogger) Errorf(msg string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l *slogLogger) Warnf(msg string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

func (l *slogLogger) Infof(msg string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(msg, args...))
}

func (l *slogLogger) Debugf(msg string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *slogLogger) Sub(module string) waLog.Logger {
	return &slogLogger{logger: l.logger.With(slog.String("wa_module", module))}
}
