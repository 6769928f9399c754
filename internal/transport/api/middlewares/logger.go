package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger пишет в лог каждый запрос. Приватные ошибки обработчиков попадают в лог, но не в ответ.
func Logger(l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithFields(logrus.Fields{
		"component": "http",
		"module":    "access",
	})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := entry.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"route":    c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"clientIP": c.ClientIP(),
		})
		if actor := CurrentActor(c); actor.UserID != 0 {
			log = log.WithField("userID", actor.UserID)
		}

		switch {
		case c.Writer.Status() >= 500: //nolint:mnd
			log.WithField("errors", c.Errors.String()).Error("request failed")
		case len(c.Errors) > 0:
			log.WithField("errors", c.Errors.String()).Warn("request rejected")
		default:
			log.Info("request")
		}
	}
}
