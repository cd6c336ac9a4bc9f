package pipeline

import (
	"context"
	"time"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/schema"
)

// DefaultDifficulty is used when the scorer and the structurer both fail to
// produce a usable score.
const DefaultDifficulty = 3

// Enrichment is the set of optional fields attached to a structured record.
// Every field has a default and none of them can fail a run.
type Enrichment struct {
	Categories []string
	DueTime    *time.Time
	Steps      []string
	Difficulty int
	// Scored is false when Difficulty is a fallback.
	Scored bool
}

func (p *Pipeline) defaulted(ctx context.Context, enricher string, err error) {
	p.metrics.EnrichmentDefaulted(enricher)
	logger.FromContext(ctx).Warn("Enrichment fell back to default", "enricher", enricher, "error", err)
}

// Categories returns up to five lowercase labels for text. Any failure yields
// an empty slice.
func (p *Pipeline) Categories(ctx context.Context, text string, kind schema.Kind) []string {
	op, prompt := opTaskCategories, p.prompts.TaskCategories
	if kind == schema.KindNote {
		op, prompt = opNoteCategories, p.prompts.NoteCategories
	}

	raw, err := p.complete(ctx, op, prompt, text, categoriesParams)
	if err == nil {
		var labels []string
		labels, err = schema.DecodeStrings(schema.ShapeCategories, "categories", raw)
		if err == nil {
			return domain.CleanCategories(labels)
		}
	}

	p.defaulted(ctx, "categories", err)
	return []string{}
}

// Steps breaks a task into ordered sub-steps. Any failure yields an empty
// slice.
func (p *Pipeline) Steps(ctx context.Context, text string) []string {
	raw, err := p.complete(ctx, opSteps, p.prompts.Steps, text, stepsParams)
	if err == nil {
		var steps []string
		steps, err = schema.DecodeStrings(schema.ShapeSteps, "steps", raw)
		if err == nil {
			return domain.CleanSteps(steps)
		}
	}

	p.defaulted(ctx, "steps", err)
	return []string{}
}

// Difficulty scores text from 1 to 5. On failure it returns
// DefaultDifficulty and false.
func (p *Pipeline) Difficulty(ctx context.Context, text string) (int, bool) {
	raw, err := p.complete(ctx, opDifficulty, p.prompts.Difficulty, text, difficultyParams)
	if err == nil {
		var n int
		n, err = schema.ParseDifficulty(raw)
		if err == nil {
			return n, true
		}
	}

	p.defaulted(ctx, "difficulty", err)
	return DefaultDifficulty, false
}

// DueTime extracts a deadline from text relative to ref. It returns nil when
// the text carries no deadline or when extraction fails.
func (p *Pipeline) DueTime(ctx context.Context, text string, ref time.Time) *time.Time {
	raw, err := p.complete(ctx, opDueTime, p.prompts.DueTime, ai.BuildDueTimeInput(text, ref), dueTimeParams)
	if err == nil {
		var fields schema.DueTimeFields
		fields, err = schema.DecodeDueTime(raw)
		if err == nil {
			var due *time.Time
			due, err = ResolveDueTime(fields, ref)
			if err == nil {
				return due
			}
		}
	}

	p.defaulted(ctx, "due_time", err)
	return nil
}
