package pipeline

import (
	"context"
	"time"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/metrics"
)

const DefaultModel = "llama-3.1-8b-instant"

type TaskCreator interface {
	Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)
}

type NoteCreator interface {
	Create(ctx context.Context, draft domain.NoteDraft) (domain.Note, error)
}

// Pipeline turns free-form text into persisted tasks and notes.
type Pipeline struct {
	client   ai.Client
	tasks    TaskCreator
	notes    NoteCreator
	prompts  ai.Prompts
	model    string
	metrics  *metrics.Metrics
	now      func() time.Time
	observer func(Transition)
}

type Option func(*Pipeline)

func WithPrompts(p ai.Prompts) Option {
	return func(pl *Pipeline) { pl.prompts = p }
}

func WithModel(model string) Option {
	return func(pl *Pipeline) {
		if model != "" {
			pl.model = model
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) {
		if now != nil {
			pl.now = now
		}
	}
}

// WithObserver registers a callback for every state transition of a run.
// It is called from the goroutine that made the transition.
func WithObserver(fn func(Transition)) Option {
	return func(pl *Pipeline) { pl.observer = fn }
}

func New(client ai.Client, tasks TaskCreator, notes NoteCreator, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:  client,
		tasks:   tasks,
		notes:   notes,
		prompts: ai.DefaultPrompts(),
		model:   DefaultModel,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Per-operation sampling settings.
var (
	classifyParams   = ai.Params{Temperature: 0.9, MaxTokens: 512, JSONMode: true}
	structureParams  = ai.Params{Temperature: 0.1, MaxTokens: 512, JSONMode: true}
	categoriesParams = ai.Params{Temperature: 0.2, MaxTokens: 128}
	dueTimeParams    = ai.Params{Temperature: 0.1, MaxTokens: 128, JSONMode: true}
	stepsParams      = ai.Params{Temperature: 0.2, MaxTokens: 512}
	difficultyParams = ai.Params{Temperature: 0.1, MaxTokens: 8}
)

const (
	opClassify       = "classify"
	opStructureTask  = "structure_task"
	opStructureNote  = "structure_note"
	opTaskCategories = "task_categories"
	opNoteCategories = "note_categories"
	opDueTime        = "due_time"
	opSteps          = "steps"
	opDifficulty     = "difficulty"
)

func (p *Pipeline) complete(ctx context.Context, op, prompt, text string, params ai.Params) (string, error) {
	params.Model = p.model

	start := time.Now()
	out, err := p.client.Complete(ctx, prompt, text, params)
	p.metrics.ObserveInference(op, time.Since(start), err)
	if err != nil {
		return "", ai.WithOp(op, err)
	}

	logger.FromContext(ctx).Debug("Inference completed", "op", op, "duration", time.Since(start), "response_len", len(out))
	return out, nil
}
