package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
)

type HTTPMetrics interface {
	ObserveHTTP(handler, method string, status int, d time.Duration)
}

// Metrics учитывает запросы по шаблону маршрута. Запросы на неизвестные маршруты учитываются как "unmatched".
func Metrics(m HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
