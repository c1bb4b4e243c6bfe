package middleware

import (
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Запросы дольше slowRequestThreshold логируются как Warn: обычно это
// выборка области блоков по слишком большому объёму.
const slowRequestThreshold = 500 * time.Millisecond

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи
// через глобальный logging пакет. Уровень зависит от исхода: 5xx — Error,
// медленный запрос — Warn, остальное — Info.
type RequestLogger struct{}

func NewRequestLogger() *RequestLogger { return &RequestLogger{} }

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Trace-id берём из OpenTelemetry-спана, если он уже создан,
		// иначе генерируем свой.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logging.Info("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		switch {
		case status >= 500:
			logging.Error("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
		case latency > slowRequestThreshold:
			logging.Warn("[HTTP] ◀ медленный запрос: %s %s %d %s trace=%s", method, path, status, latency, traceID)
		default:
			logging.Info("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
		}
	}
}
