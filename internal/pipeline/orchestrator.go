package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/schema"
)

type Result struct {
	RunID          string
	Classification schema.Classification
	TasksCreated   int
	NotesCreated   int
	TaskIDs        []string
	NoteIDs        []string
	// Failures lists branches that aborted in a run that still persisted
	// at least one record.
	Failures []BranchFailure
}

// Run classifies text and processes it. The run does not observe ctx
// cancellation once started; each inference call is bounded by the client's
// own timeout.
func (p *Pipeline) Run(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}

	ctx, tr, runID := p.begin(ctx)
	start := time.Now()

	c, err := p.Classify(ctx, text)
	if err != nil {
		tr.fail(laneRun)
		p.metrics.RunFinished("unknown", "failed", time.Since(start))
		logger.FromContext(ctx).Warn("Classification failed", "error", err)
		return Result{RunID: runID}, err
	}

	logger.FromContext(ctx).Debug("Text classified", "kind", c.Kind, "confidence", c.Confidence)
	return p.process(ctx, tr, runID, start, text, c, p.now())
}

// Process runs the branches selected by an existing classification. ref is
// the reference instant for relative due dates.
func (p *Pipeline) Process(ctx context.Context, text string, c schema.Classification, ref time.Time) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}

	ctx, tr, runID := p.begin(ctx)
	return p.process(ctx, tr, runID, time.Now(), text, c, ref)
}

func (p *Pipeline) begin(ctx context.Context) (context.Context, *tracker, string) {
	ctx = context.WithoutCancel(ctx)

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID)
	ctx = logger.ContextWithLogger(ctx, log)

	tr := newTracker(func(t Transition) {
		log.Debug("Pipeline transition", "lane", t.Lane, "from", t.From, "to", t.To)
		if p.observer != nil {
			p.observer(t)
		}
	})
	return ctx, tr, runID
}

func (p *Pipeline) process(
	ctx context.Context,
	tr *tracker,
	runID string,
	start time.Time,
	text string,
	c schema.Classification,
	ref time.Time,
) (Result, error) {
	res := Result{RunID: runID, Classification: c}
	log := logger.FromContext(ctx)

	var (
		task     *domain.Task
		note     *domain.Note
		taskFail *BranchFailure
		noteFail *BranchFailure
	)

	switch c.Kind {
	case schema.KindTask:
		if err := tr.to(laneRun, StateTaskBranch); err != nil {
			return res, err
		}
		task, taskFail = p.taskBranch(ctx, tr, text, ref)

	case schema.KindNote:
		if err := tr.to(laneRun, StateNoteBranch); err != nil {
			return res, err
		}
		note, noteFail = p.noteBranch(ctx, tr, text)

	case schema.KindBoth:
		if err := tr.to(laneRun, StateBothBranches); err != nil {
			return res, err
		}
		var g errgroup.Group
		g.Go(func() error {
			task, taskFail = p.taskBranch(ctx, tr, text, ref)
			return nil
		})
		g.Go(func() error {
			note, noteFail = p.noteBranch(ctx, tr, text)
			return nil
		})
		_ = g.Wait()

	default:
		tr.fail(laneRun)
		return res, fmt.Errorf("process: %w", &schema.Violation{
			Shape: schema.ShapeClassification, Field: "kind", Rule: "oneof", Value: string(c.Kind),
		})
	}

	if task != nil {
		res.TasksCreated = 1
		res.TaskIDs = []string{task.ID}
	}
	if note != nil {
		res.NotesCreated = 1
		res.NoteIDs = []string{note.ID}
	}
	for _, f := range []*BranchFailure{taskFail, noteFail} {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}

	if res.TasksCreated+res.NotesCreated == 0 {
		tr.fail(laneRun)
		p.metrics.RunFinished(string(c.Kind), "failed", time.Since(start))
		first := res.Failures[0]
		log.Warn("Run failed", "kind", c.Kind, "branch", first.Branch, "stage", first.Stage, "error", first.Err)
		return res, first
	}

	if err := tr.to(laneRun, StateComplete); err != nil {
		return res, err
	}

	outcome := "ok"
	if len(res.Failures) > 0 {
		outcome = "partial"
		for _, f := range res.Failures {
			log.Warn("Branch failed", "branch", f.Branch, "stage", f.Stage, "error", f.Err)
		}
	}
	p.metrics.RunFinished(string(c.Kind), outcome, time.Since(start))
	log.Info("Run finished",
		"kind", c.Kind,
		"tasks_created", res.TasksCreated,
		"notes_created", res.NotesCreated,
		"duration", time.Since(start),
	)

	return res, nil
}

func branchFailure(tr *tracker, lane string, b Branch, stage string, err error) *BranchFailure {
	tr.fail(lane)
	return &BranchFailure{Branch: b, Stage: stage, Err: err}
}

func (p *Pipeline) taskBranch(ctx context.Context, tr *tracker, text string, ref time.Time) (*domain.Task, *BranchFailure) {
	tr.start(laneTask, StateTaskBranch)

	structured, err := p.StructureTask(ctx, text)
	if err != nil {
		return nil, branchFailure(tr, laneTask, BranchTask, stageStructure, err)
	}
	if err := tr.to(laneTask, StateEnriching); err != nil {
		return nil, branchFailure(tr, laneTask, BranchTask, stageState, err)
	}

	enriched := p.enrichTask(ctx, ai.BuildStructuredText(structured.Title, structured.Content), text, ref)
	draft := assembleTask(structured, enriched)

	if err := tr.to(laneTask, StatePersisting); err != nil {
		return nil, branchFailure(tr, laneTask, BranchTask, stageState, err)
	}
	created, err := p.tasks.Create(ctx, draft)
	if err != nil {
		return nil, branchFailure(tr, laneTask, BranchTask, stagePersist, fmt.Errorf("persist task: %w", err))
	}
	if err := tr.to(laneTask, StateComplete); err != nil {
		return nil, branchFailure(tr, laneTask, BranchTask, stageState, err)
	}

	p.metrics.RecordCreated("task")
	return &created, nil
}

func (p *Pipeline) noteBranch(ctx context.Context, tr *tracker, text string) (*domain.Note, *BranchFailure) {
	tr.start(laneNote, StateNoteBranch)

	structured, err := p.StructureNote(ctx, text)
	if err != nil {
		return nil, branchFailure(tr, laneNote, BranchNote, stageStructure, err)
	}
	if err := tr.to(laneNote, StateEnriching); err != nil {
		return nil, branchFailure(tr, laneNote, BranchNote, stageState, err)
	}

	categories := p.Categories(ctx, ai.BuildStructuredText(structured.Title, structured.Content), schema.KindNote)
	draft := domain.NoteDraft{
		Title:      structured.Title,
		Content:    structured.Content,
		Categories: categories,
	}

	if err := tr.to(laneNote, StatePersisting); err != nil {
		return nil, branchFailure(tr, laneNote, BranchNote, stageState, err)
	}
	created, err := p.notes.Create(ctx, draft)
	if err != nil {
		return nil, branchFailure(tr, laneNote, BranchNote, stagePersist, fmt.Errorf("persist note: %w", err))
	}
	if err := tr.to(laneNote, StateComplete); err != nil {
		return nil, branchFailure(tr, laneNote, BranchNote, stageState, err)
	}

	p.metrics.RecordCreated("note")
	return &created, nil
}

// enrichTask runs the task enrichers concurrently. Categories, steps and
// difficulty read the structured text; the due time reads the original input
// since structuring may drop the deadline phrase.
func (p *Pipeline) enrichTask(ctx context.Context, structured, original string, ref time.Time) Enrichment {
	var (
		e Enrichment
		g errgroup.Group
	)

	g.Go(func() error {
		e.Categories = p.Categories(ctx, structured, schema.KindTask)
		return nil
	})
	g.Go(func() error {
		e.Steps = p.Steps(ctx, structured)
		return nil
	})
	g.Go(func() error {
		e.Difficulty, e.Scored = p.Difficulty(ctx, structured)
		return nil
	})
	g.Go(func() error {
		e.DueTime = p.DueTime(ctx, original, ref)
		return nil
	})
	_ = g.Wait()

	return e
}

func assembleTask(s schema.StructuredTask, e Enrichment) domain.TaskDraft {
	priority := domain.Priority(s.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}

	difficulty := DefaultDifficulty
	switch {
	case e.Scored:
		difficulty = e.Difficulty
	case s.Difficulty != nil:
		difficulty = *s.Difficulty
	}

	return domain.TaskDraft{
		Title:       s.Title,
		Description: s.Content,
		Priority:    priority,
		Status:      domain.StatusTodo,
		Difficulty:  difficulty,
		DueTime:     e.DueTime,
		Categories:  e.Categories,
		Steps:       e.Steps,
	}
}

// IsInferenceFailure reports whether err comes from the model: a failed call,
// unparseable output or output that breaks its schema.
func IsInferenceFailure(err error) bool {
	return errors.Is(err, ai.ErrInference) ||
		errors.Is(err, schema.ErrInferenceParse) ||
		errors.Is(err, schema.ErrSchemaViolation)
}
