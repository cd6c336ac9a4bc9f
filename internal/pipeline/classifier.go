package pipeline

import (
	"context"
	"fmt"
	"strings"

	"taskpad-backend/internal/schema"
)

// Classify decides whether text is a task, a note or both. Every failure is
// returned as is: an inference error, a parse error or a schema violation.
func (p *Pipeline) Classify(ctx context.Context, text string) (schema.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return schema.Classification{}, ErrEmptyInput
	}

	raw, err := p.complete(ctx, opClassify, p.prompts.Classify, text, classifyParams)
	if err != nil {
		return schema.Classification{}, err
	}

	c, err := schema.DecodeClassification(raw)
	if err != nil {
		return schema.Classification{}, fmt.Errorf("classify: %w", err)
	}
	return c, nil
}
