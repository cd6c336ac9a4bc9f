package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"taskpad-backend/internal/logger"
)

type CtxKey string

const (
	ctxSubjectKey CtxKey = "analytics_subject"
)

// Envelope is what we store with every event.
type Envelope struct {
	Subject      string
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
	IPCountry    string
}

// Recorder stores analytics events. Implementations never fail the caller's
// flow; the returned error is informational.
type Recorder interface {
	Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.TrimSpace(r.Header.Get("X-Platform"))
	if platform == "" {
		platform = "unknown"
	} else {
		platform = strings.ToLower(platform)
		if platform != "ios" && platform != "android" && platform != "web" && platform != "cli" {
			platform = "unknown"
		}
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	subject, _ := SubjectFromContext(r.Context())

	return Envelope{
		Subject:      subject,
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxSubjectKey, subject)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxSubjectKey).(string)
	return s, ok && s != ""
}

// Client-provided idempotency key (optional)
// If present and duplicates, insert is ignored.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// SQLRecorder inserts events into analytics_events.
type SQLRecorder struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLRecorder(db *sql.DB) *SQLRecorder {
	return &SQLRecorder{db: db, now: time.Now}
}

// Log inserts one analytics event.
// Never logs sensitive raw text; caller passes sanitized props.
func (s *SQLRecorder) Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error {
	query, args, err := buildInsert(ctx, env, eventName, props, sourceEventKey, s.now().UTC())
	if err != nil || query == "" {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Warn("Failed to store analytics event", "event", eventName, "error", err)
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

func buildInsert(
	ctx context.Context,
	env Envelope,
	eventName string,
	props any,
	sourceEventKey string,
	at time.Time,
) (string, []any, error) {
	if eventName == "" {
		return "", nil, nil
	}

	subject := env.Subject
	if subject == "" {
		subject, _ = SubjectFromContext(ctx)
	}
	if subject == "" {
		subject = "anonymous"
	}

	b, err := json.Marshal(props)
	if err != nil {
		return "", nil, fmt.Errorf("marshal analytics props: %w", err)
	}

	cols := []string{
		"event_name", "event_time", "subject", "session_id",
		"platform", "app_version", "device_locale", "ip_country", "properties",
	}
	vals := []any{
		eventName, at, subject, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale), nullIfEmpty(env.IPCountry),
		squirrel.Expr("?::jsonb", string(b)),
	}

	qb := squirrel.Insert("analytics_events").PlaceholderFormat(squirrel.Dollar)

	// If source_event_key duplicates -> do nothing
	if sourceEventKey != "" {
		cols = append(cols, "source_event_key")
		vals = append(vals, sourceEventKey)
		qb = qb.Suffix("ON CONFLICT (source_event_key) DO NOTHING")
	}

	return qb.Columns(cols...).Values(vals...).ToSql()
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// LogRecorder writes events to the structured log. Used when no database is
// configured.
type LogRecorder struct{}

func (LogRecorder) Log(ctx context.Context, env Envelope, eventName string, props any, _ string) error {
	if eventName == "" {
		return nil
	}
	logger.FromContext(ctx).Debug("Analytics event", "event", eventName, "platform", env.Platform, "props", props)
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Log(context.Context, Envelope, string, any, string) error { return nil }
