package pipeline

import (
	"context"
	"fmt"
	"strings"

	"taskpad-backend/internal/schema"
)

func (p *Pipeline) StructureTask(ctx context.Context, text string) (schema.StructuredTask, error) {
	raw, err := p.complete(ctx, opStructureTask, p.prompts.StructureTask, text, structureParams)
	if err != nil {
		return schema.StructuredTask{}, err
	}

	t, err := schema.DecodeTask(raw)
	if err != nil {
		return schema.StructuredTask{}, fmt.Errorf("structure task: %w", err)
	}

	t.Title = strings.TrimSpace(t.Title)
	t.Content = strings.TrimSpace(t.Content)
	if err := schema.ValidateVar(schema.ShapeTask, "title", t.Title, "required"); err != nil {
		return schema.StructuredTask{}, fmt.Errorf("structure task: %w", err)
	}
	return t, nil
}

func (p *Pipeline) StructureNote(ctx context.Context, text string) (schema.StructuredNote, error) {
	raw, err := p.complete(ctx, opStructureNote, p.prompts.StructureNote, text, structureParams)
	if err != nil {
		return schema.StructuredNote{}, err
	}

	n, err := schema.DecodeNote(raw)
	if err != nil {
		return schema.StructuredNote{}, fmt.Errorf("structure note: %w", err)
	}

	n.Title = strings.TrimSpace(n.Title)
	n.Content = strings.TrimSpace(n.Content)
	if err := schema.ValidateVar(schema.ShapeNote, "title", n.Title, "required"); err != nil {
		return schema.StructuredNote{}, fmt.Errorf("structure note: %w", err)
	}
	return n, nil
}
