package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "assistant-api/api"
	querySpanName    = "assistant.query"
	queryEventName   = "query.request.metrics"
	queryEventDomain = "assistant"
)

// queryMetrics collects per-request timings for the dispatch pipeline and
// emits them both as a structured log entry and as an otel span.
type queryMetrics struct {
	logger           *log.Logger
	span             trace.Span
	start            time.Time
	classifyDuration time.Duration
	dispatchDuration time.Duration
	encodeDuration   time.Duration
	intent           string
	errorStage       string
}

func newQueryMetrics(ctx context.Context, logger *log.Logger) (*queryMetrics, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	m := &queryMetrics{logger: logger, start: time.Now()}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, querySpanName)
	m.span = span
	return m, spanCtx
}

func (m *queryMetrics) ObserveClassify(d time.Duration) {
	if d > 0 {
		m.classifyDuration = d
	}
}

func (m *queryMetrics) ObserveDispatch(d time.Duration) {
	if d > 0 {
		m.dispatchDuration = d
	}
}

func (m *queryMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *queryMetrics) SetIntent(intent string) {
	if intent != "" {
		m.intent = intent
	}
}

func (m *queryMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log ends the span and writes the observability event. It must be called
// exactly once per request.
func (m *queryMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	severityText, severityNumber := severityForStatus(status, err)

	attrs := map[string]any{
		"http.route":               "/api/query",
		"http.status_code":         status,
		"assistant.query.total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.intent != "" {
		attrs["assistant.query.intent"] = m.intent
	}
	if m.classifyDuration > 0 {
		attrs["assistant.query.classify_ms"] = durationToMillis(m.classifyDuration)
	}
	if m.dispatchDuration > 0 {
		attrs["assistant.query.dispatch_ms"] = durationToMillis(m.dispatchDuration)
	}
	if m.encodeDuration > 0 {
		attrs["assistant.query.encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		attrs["assistant.query.error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error.message"] = err.Error()
	}

	fields := log.Fields{
		"event.name":      queryEventName,
		"event.domain":    queryEventDomain,
		"attributes":      attrs,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}

	if m.span != nil {
		spanAttrs := make([]attribute.KeyValue, 0, len(attrs))
		for k, v := range attrs {
			spanAttrs = append(spanAttrs, anyAttribute(k, v))
		}
		m.span.SetAttributes(spanAttrs...)

		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", queryEventName),
			attribute.String("event.domain", queryEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, spanAttrs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))

		if err != nil || status >= http.StatusInternalServerError {
			desc := http.StatusText(status)
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}

		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		m.span.End()
	}

	m.logger.WithFields(fields).Info("observability.event")
}

func anyAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
