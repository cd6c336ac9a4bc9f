package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/pipeline"
	"taskpad-backend/internal/schema"
)

const (
	DefaultMinConfidence = 0.6
	MaxInputLen          = 10000
)

var (
	ErrLowConfidence = errors.New("classification confidence too low")
	ErrInputTooLong  = errors.New("input text is too long")
)

// LowConfidenceError carries the rejected classification.
type LowConfidenceError struct {
	Classification schema.Classification
	Threshold      float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("%s: %s at %.2f, need %.2f",
		ErrLowConfidence.Error(), e.Classification.Kind, e.Classification.Confidence, e.Threshold)
}

func (e *LowConfidenceError) Unwrap() error { return ErrLowConfidence }

// Runner is the part of the pipeline the service drives.
type Runner interface {
	Classify(ctx context.Context, text string) (schema.Classification, error)
	Process(ctx context.Context, text string, c schema.Classification, ref time.Time) (pipeline.Result, error)
}

type Service struct {
	runner        Runner
	rec           analytics.Recorder
	minConfidence float64
	now           func() time.Time
}

// NewService builds the ingest entry point. minConfidence of 0 accepts every
// classification.
func NewService(runner Runner, rec analytics.Recorder, minConfidence float64) *Service {
	if rec == nil {
		rec = analytics.Nop{}
	}
	return &Service{
		runner:        runner,
		rec:           rec,
		minConfidence: minConfidence,
		now:           time.Now,
	}
}

// Handle classifies text, applies the confidence threshold and processes it.
// Once started it ignores ctx cancellation. Raw text never reaches logs or
// analytics.
func (s *Service) Handle(ctx context.Context, env analytics.Envelope, text string) (pipeline.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return pipeline.Result{}, pipeline.ErrEmptyInput
	}
	if len([]rune(text)) > MaxInputLen {
		return pipeline.Result{}, ErrInputTooLong
	}

	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)
	ref := s.now()

	c, err := s.runner.Classify(ctx, text)
	if err != nil {
		s.event(ctx, env, "text_failed", map[string]any{"stage": "classify", "text_len": len(text)})
		return pipeline.Result{}, err
	}

	if s.minConfidence > 0 && c.Confidence < s.minConfidence {
		log.Info("Classification below threshold", "kind", c.Kind, "confidence", c.Confidence, "threshold", s.minConfidence)
		s.event(ctx, env, "text_rejected", map[string]any{
			"kind":       c.Kind,
			"confidence": c.Confidence,
			"text_len":   len(text),
		})
		return pipeline.Result{Classification: c}, &LowConfidenceError{Classification: c, Threshold: s.minConfidence}
	}

	res, err := s.runner.Process(ctx, text, c, ref)
	if err != nil {
		s.event(ctx, env, "text_failed", map[string]any{
			"stage":    "process",
			"kind":     c.Kind,
			"failures": failureProps(res.Failures),
			"text_len": len(text),
		})
		return res, err
	}

	s.event(ctx, env, "text_processed", map[string]any{
		"run_id":        res.RunID,
		"kind":          c.Kind,
		"confidence":    c.Confidence,
		"tasks_created": res.TasksCreated,
		"notes_created": res.NotesCreated,
		"task_ids":      res.TaskIDs,
		"note_ids":      res.NoteIDs,
		"failures":      failureProps(res.Failures),
		"text_len":      len(text),
	})
	return res, nil
}

func (s *Service) event(ctx context.Context, env analytics.Envelope, name string, props map[string]any) {
	_ = s.rec.Log(ctx, env, name, props, "")
}

func failureProps(fs []pipeline.BranchFailure) []map[string]string {
	out := make([]map[string]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, map[string]string{"branch": string(f.Branch), "stage": f.Stage})
	}
	return out
}

// Message summarizes a successful run for API and CLI output.
func Message(res pipeline.Result) string {
	return fmt.Sprintf("Successfully processed: %d tasks, %d notes created", res.TasksCreated, res.NotesCreated)
}
