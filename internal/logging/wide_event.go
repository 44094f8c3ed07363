package logging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// WideEvent is a single structured log entry covering a whole request. It is
// filled in as the request passes through the handlers and emitted once.
type WideEvent struct {
	mu sync.Mutex

	TraceID   string
	EventType string
	Timestamp time.Time

	HTTPMethod     string
	HTTPPath       string
	HTTPStatusCode int
	HTTPDurationMs int64
	HTTPHeaders    map[string]string

	UserID    string
	UserEmail string

	// Form context
	FormID     string
	DatabaseID string
	FieldName  string
	FormEvent  string
	Results    int
	Skipped    bool

	Error          string
	ErrorStage     string
	PanicRecovered bool

	Metadata map[string]any
}

func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:     uuid.New().String(),
		EventType:   eventType,
		Timestamp:   time.Now(),
		HTTPHeaders: make(map[string]string),
		Metadata:    make(map[string]any),
	}
}

func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func update(ctx context.Context, fn func(event *WideEvent)) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		defer event.mu.Unlock()
		fn(event)
	}
}

func EnrichHTTP(ctx context.Context, method, path string) {
	update(ctx, func(event *WideEvent) {
		event.HTTPMethod = method
		event.HTTPPath = path
	})
}

func EnrichHTTPStatus(ctx context.Context, statusCode int) {
	update(ctx, func(event *WideEvent) {
		event.HTTPStatusCode = statusCode
	})
}

func EnrichHTTPDuration(ctx context.Context, duration time.Duration) {
	update(ctx, func(event *WideEvent) {
		event.HTTPDurationMs = duration.Milliseconds()
	})
}

func EnrichHTTPHeader(ctx context.Context, key, value string) {
	update(ctx, func(event *WideEvent) {
		event.HTTPHeaders[key] = value
	})
}

func EnrichUser(ctx context.Context, userID, email string) {
	update(ctx, func(event *WideEvent) {
		event.UserID = userID
		event.UserEmail = email
	})
}

func EnrichForm(ctx context.Context, formID, formEvent string) {
	update(ctx, func(event *WideEvent) {
		event.FormID = formID
		event.FormEvent = formEvent
	})
}

func EnrichDatabase(ctx context.Context, databaseID string) {
	update(ctx, func(event *WideEvent) {
		event.DatabaseID = databaseID
	})
}

func EnrichField(ctx context.Context, fieldName string) {
	update(ctx, func(event *WideEvent) {
		event.FieldName = fieldName
	})
}

func EnrichResults(ctx context.Context, results int) {
	update(ctx, func(event *WideEvent) {
		event.Results = results
	})
}

func EnrichSkipped(ctx context.Context) {
	update(ctx, func(event *WideEvent) {
		event.Skipped = true
	})
}

func EnrichError(ctx context.Context, err error, stage string) {
	if err == nil {
		return
	}
	update(ctx, func(event *WideEvent) {
		event.Error = err.Error()
		event.ErrorStage = stage
	})
}

func EnrichPanic(ctx context.Context) {
	update(ctx, func(event *WideEvent) {
		event.PanicRecovered = true
	})
}

func EnrichMetadata(ctx context.Context, key string, value any) {
	update(ctx, func(event *WideEvent) {
		event.Metadata[key] = value
	})
}

// Emit writes the request's event. Failed and panicking requests are logged at
// error level.
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}

	event.mu.Lock()
	defer event.mu.Unlock()

	var entry *zerolog.Event
	if event.Error != "" || event.PanicRecovered {
		entry = log.Error()
	} else {
		entry = log.Info()
	}

	entry = entry.
		Str("trace_id", event.TraceID).
		Str("event_type", event.EventType).
		Time("timestamp", event.Timestamp)

	if event.HTTPMethod != "" {
		entry = entry.Str("http_method", event.HTTPMethod)
	}
	if event.HTTPPath != "" {
		entry = entry.Str("http_path", event.HTTPPath)
	}
	if event.HTTPStatusCode != 0 {
		entry = entry.Int("http_status_code", event.HTTPStatusCode)
	}
	if event.HTTPDurationMs != 0 {
		entry = entry.Int64("http_duration_ms", event.HTTPDurationMs)
	}
	if len(event.HTTPHeaders) > 0 {
		headers := zerolog.Dict()
		for key, value := range event.HTTPHeaders {
			headers = headers.Str(key, value)
		}
		entry = entry.Dict("http_headers", headers)
	}

	if event.UserID != "" {
		entry = entry.Str("user_id", event.UserID)
	}
	if event.UserEmail != "" {
		entry = entry.Str("user_email", event.UserEmail)
	}

	if event.FormID != "" {
		entry = entry.Str("form_id", event.FormID)
	}
	if event.FormEvent != "" {
		entry = entry.Str("form_event", event.FormEvent)
	}
	if event.DatabaseID != "" {
		entry = entry.Str("database_id", event.DatabaseID)
	}
	if event.FieldName != "" {
		entry = entry.Str("field_name", event.FieldName)
	}
	if event.Results != 0 {
		entry = entry.Int("results", event.Results)
	}
	if event.Skipped {
		entry = entry.Bool("skipped", true)
	}

	if event.Error != "" {
		entry = entry.Str("error", event.Error)
	}
	if event.ErrorStage != "" {
		entry = entry.Str("error_stage", event.ErrorStage)
	}
	if event.PanicRecovered {
		entry = entry.Bool("panic_recovered", true)
	}

	if len(event.Metadata) > 0 {
		entry = entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("wide_event")
}
