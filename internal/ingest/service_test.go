package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/pipeline"
	"taskpad-backend/internal/schema"
)

type fakeRunner struct {
	classifyFn func(ctx context.Context, text string) (schema.Classification, error)
	processFn  func(ctx context.Context, text string, c schema.Classification, ref time.Time) (pipeline.Result, error)
}

func (f *fakeRunner) Classify(ctx context.Context, text string) (schema.Classification, error) {
	return f.classifyFn(ctx, text)
}

func (f *fakeRunner) Process(ctx context.Context, text string, c schema.Classification, ref time.Time) (pipeline.Result, error) {
	return f.processFn(ctx, text, c, ref)
}

func classifyAs(kind schema.Kind, confidence float64) func(context.Context, string) (schema.Classification, error) {
	return func(context.Context, string) (schema.Classification, error) {
		return schema.Classification{Kind: kind, Confidence: confidence}, nil
	}
}

func processOK(ctx context.Context, _ string, c schema.Classification, _ time.Time) (pipeline.Result, error) {
	res := pipeline.Result{Classification: c, RunID: "run-1"}
	if c.Kind != schema.KindNote {
		res.TasksCreated, res.TaskIDs = 1, []string{"t-1"}
	}
	if c.Kind != schema.KindTask {
		res.NotesCreated, res.NoteIDs = 1, []string{"n-1"}
	}
	return res, ctx.Err()
}

type eventLog struct {
	mu    sync.Mutex
	names []string
	props []any
}

func (e *eventLog) Log(_ context.Context, _ analytics.Envelope, name string, props any, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, name)
	e.props = append(e.props, props)
	return nil
}

func TestService_Handle(t *testing.T) {
	t.Run("Should process text above the threshold", func(t *testing.T) {
		events := &eventLog{}
		svc := NewService(&fakeRunner{classifyFn: classifyAs(schema.KindBoth, 0.8), processFn: processOK}, events, 0.6)

		res, err := svc.Handle(t.Context(), analytics.Envelope{}, "  Meeting Friday, budget capped  ")
		require.NoError(t, err)
		assert.Equal(t, 1, res.TasksCreated)
		assert.Equal(t, 1, res.NotesCreated)
		assert.Equal(t, "Successfully processed: 1 tasks, 1 notes created", Message(res))

		require.Equal(t, []string{"text_processed"}, events.names)
		raw, err := json.Marshal(events.props[0])
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "budget")
	})

	t.Run("Should reject classifications below the threshold", func(t *testing.T) {
		processed := false
		runner := &fakeRunner{
			classifyFn: classifyAs(schema.KindTask, 0.3),
			processFn: func(context.Context, string, schema.Classification, time.Time) (pipeline.Result, error) {
				processed = true
				return pipeline.Result{}, nil
			},
		}
		events := &eventLog{}

		res, err := NewService(runner, events, 0.6).Handle(t.Context(), analytics.Envelope{}, "hmm")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLowConfidence))
		assert.False(t, processed)
		assert.Equal(t, schema.KindTask, res.Classification.Kind)
		assert.Equal(t, []string{"text_rejected"}, events.names)

		var lc *LowConfidenceError
		require.True(t, errors.As(err, &lc))
		assert.InDelta(t, 0.6, lc.Threshold, 1e-9)
	})

	t.Run("Should accept everything when the threshold is 0", func(t *testing.T) {
		svc := NewService(&fakeRunner{classifyFn: classifyAs(schema.KindNote, 0), processFn: processOK}, nil, 0)

		res, err := svc.Handle(t.Context(), analytics.Envelope{}, "idea")
		require.NoError(t, err)
		assert.Equal(t, 1, res.NotesCreated)
	})

	t.Run("Should reject empty and oversized input", func(t *testing.T) {
		svc := NewService(&fakeRunner{}, nil, 0.6)

		_, err := svc.Handle(t.Context(), analytics.Envelope{}, " \t ")
		assert.True(t, errors.Is(err, pipeline.ErrEmptyInput))

		_, err = svc.Handle(t.Context(), analytics.Envelope{}, strings.Repeat("я", MaxInputLen+1))
		assert.True(t, errors.Is(err, ErrInputTooLong))
	})

	t.Run("Should ignore caller cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		svc := NewService(&fakeRunner{classifyFn: classifyAs(schema.KindTask, 0.9), processFn: processOK}, nil, 0.6)

		_, err := svc.Handle(ctx, analytics.Envelope{}, "Buy milk")
		assert.NoError(t, err)
	})

	t.Run("Should pass classification errors through", func(t *testing.T) {
		runner := &fakeRunner{classifyFn: func(context.Context, string) (schema.Classification, error) {
			return schema.Classification{}, &ai.Error{Op: "classify", Err: errors.New("timeout")}
		}}
		events := &eventLog{}

		_, err := NewService(runner, events, 0.6).Handle(t.Context(), analytics.Envelope{}, "Buy milk")
		assert.True(t, errors.Is(err, ai.ErrInference))
		assert.Equal(t, []string{"text_failed"}, events.names)
	})
}

func postHandle(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	HandleHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/handle", strings.NewReader(body)))
	return rec
}

func TestHandleHandler(t *testing.T) {
	t.Run("Should return counts and a message", func(t *testing.T) {
		svc := NewService(&fakeRunner{classifyFn: classifyAs(schema.KindTask, 0.95), processFn: processOK}, nil, 0.6)

		rec := postHandle(t, svc, `{"input":"Buy milk"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{
			"success": true,
			"tasksCreated": 1,
			"notesCreated": 0,
			"message": "Successfully processed: 1 tasks, 0 notes created"
		}`, rec.Body.String())
	})

	t.Run("Should list partial failures", func(t *testing.T) {
		runner := &fakeRunner{
			classifyFn: classifyAs(schema.KindBoth, 0.9),
			processFn: func(context.Context, string, schema.Classification, time.Time) (pipeline.Result, error) {
				return pipeline.Result{
					NotesCreated: 1,
					Failures: []pipeline.BranchFailure{{
						Branch: pipeline.BranchTask, Stage: "structure", Err: errors.New("bad title"),
					}},
				}, nil
			},
		}

		rec := postHandle(t, NewService(runner, nil, 0.6), `{"input":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Failures, 1)
		assert.Equal(t, "task", resp.Failures[0].Branch)
		assert.Equal(t, 1, resp.NotesCreated)
	})

	t.Run("Should map errors to status codes", func(t *testing.T) {
		failWith := func(err error) *Service {
			return NewService(&fakeRunner{
				classifyFn: classifyAs(schema.KindTask, 0.9),
				processFn: func(context.Context, string, schema.Classification, time.Time) (pipeline.Result, error) {
					return pipeline.Result{}, err
				},
			}, nil, 0.6)
		}

		assert.Equal(t, http.StatusBadRequest, postHandle(t, failWith(nil), `{}`).Code)
		assert.Equal(t, http.StatusBadRequest, postHandle(t, failWith(nil), `{"input":42}`).Code)
		assert.Equal(t, http.StatusBadRequest, postHandle(t, failWith(nil), `{"input":"  "}`).Code)

		lowSvc := NewService(&fakeRunner{classifyFn: classifyAs(schema.KindTask, 0.1)}, nil, 0.6)
		assert.Equal(t, http.StatusUnprocessableEntity, postHandle(t, lowSvc, `{"input":"x"}`).Code)

		assert.Equal(t, http.StatusBadGateway, postHandle(t, failWith(&ai.Error{Err: errors.New("503")}), `{"input":"x"}`).Code)
		assert.Equal(t, http.StatusUnprocessableEntity, postHandle(t, failWith(&schema.ParseError{Shape: "task"}), `{"input":"x"}`).Code)

		rec := postHandle(t, failWith(errors.New("connection refused")), `{"input":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}
