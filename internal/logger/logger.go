package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New инициализирует логгер. В продакшн (GIN_MODE=release) пишет JSON с уровнем Info, в остальных
// окружениях текст с уровнем Debug. LOG_LEVEL переопределяет уровень в любом окружении.
func New(output io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)

	if os.Getenv("GIN_MODE") == "release" {
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			l.WithError(err).Warnf("unknown LOG_LEVEL %q, keeping %s", raw, l.GetLevel())
		} else {
			l.SetLevel(level)
		}
	}
	return l
}
