package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/handle", nil)
	r.Header.Set("X-Platform", "IOS")
	r.Header.Set("X-App-Version", " 1.2.0 ")
	r.Header.Set("X-Device-Locale", "ru-RU")
	r.Header.Set("X-Session-Id", "s-1")
	r = r.WithContext(WithSubject(r.Context(), "user-42"))

	env := FromRequest(r)
	assert.Equal(t, "ios", env.Platform)
	assert.Equal(t, "1.2.0", env.AppVersion)
	assert.Equal(t, "ru-RU", env.DeviceLocale)
	assert.Equal(t, "s-1", env.SessionID)
	assert.Equal(t, "user-42", env.Subject)

	r.Header.Set("X-Platform", "toaster")
	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestSourceEventKeyFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Empty(t, SourceEventKeyFromRequest(r))

	r.Header.Set("X-Source-Event-Key", "fallback")
	assert.Equal(t, "fallback", SourceEventKeyFromRequest(r))

	r.Header.Set("Idempotency-Key", "primary")
	assert.Equal(t, "primary", SourceEventKeyFromRequest(r))
}

func TestBuildInsert(t *testing.T) {
	at := time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC)

	t.Run("Should build a plain insert", func(t *testing.T) {
		query, args, err := buildInsert(context.Background(), Envelope{Platform: "web"}, "run_completed", map[string]any{"tasks_created": 1}, "", at)
		require.NoError(t, err)

		assert.Contains(t, query, "INSERT INTO analytics_events")
		assert.Contains(t, query, "$9::jsonb")
		assert.NotContains(t, query, "ON CONFLICT")
		require.Len(t, args, 9)
		assert.Equal(t, "anonymous", args[2])
		assert.Equal(t, `{"tasks_created":1}`, args[8])
	})

	t.Run("Should dedupe on the source event key", func(t *testing.T) {
		ctx := WithSubject(context.Background(), "user-7")
		query, args, err := buildInsert(ctx, Envelope{}, "task_created", nil, "key-1", at)
		require.NoError(t, err)

		assert.Contains(t, query, "ON CONFLICT (source_event_key) DO NOTHING")
		assert.Equal(t, "user-7", args[2])
		assert.Equal(t, "key-1", args[len(args)-1])
	})

	t.Run("Should skip unnamed events", func(t *testing.T) {
		query, _, err := buildInsert(context.Background(), Envelope{}, "", nil, "", at)
		require.NoError(t, err)
		assert.Empty(t, query)
	})
}

func TestNopAndLogRecorder(t *testing.T) {
	assert.NoError(t, Nop{}.Log(context.Background(), Envelope{}, "x", nil, ""))
	assert.NoError(t, LogRecorder{}.Log(context.Background(), Envelope{}, "x", map[string]any{"a": 1}, ""))
}
