package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("Should count runs and records", func(t *testing.T) {
		m := New()
		m.RunFinished("both", "ok", time.Second)
		m.RunFinished("both", "ok", time.Second)
		m.RecordCreated("task")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("both", "ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("task")))
	})

	t.Run("Should count enrichment defaults per enricher", func(t *testing.T) {
		m := New()
		m.EnrichmentDefaulted("categories")

		assert.Equal(t, 1.0, testutil.ToFloat64(m.defaults.WithLabelValues("categories")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.defaults.WithLabelValues("steps")))
	})

	t.Run("Should label inference outcomes", func(t *testing.T) {
		m := New()
		m.ObserveInference("classify", time.Millisecond, nil)
		m.ObserveInference("classify", time.Millisecond, errors.New("boom"))

		assert.Equal(t, 2, testutil.CollectAndCount(m.inference))
	})

	t.Run("Should be safe on a nil receiver", func(t *testing.T) {
		var m *Metrics
		m.RunFinished("task", "ok", time.Second)
		m.RecordCreated("note")
		m.EnrichmentDefaulted("steps")
		m.ObserveInference("x", time.Second, nil)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Should expose collected series", func(t *testing.T) {
		m := New()
		m.RecordCreated("note")

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `taskpad_records_created_total{type="note"} 1`)
	})
}
