package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts is the catalog of system prompts used by the pipeline.
type Prompts struct {
	Classify       string `yaml:"classify"`
	StructureTask  string `yaml:"structure_task"`
	StructureNote  string `yaml:"structure_note"`
	TaskCategories string `yaml:"task_categories"`
	NoteCategories string `yaml:"note_categories"`
	DueTime        string `yaml:"due_time"`
	Steps          string `yaml:"steps"`
	Difficulty     string `yaml:"difficulty"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		Classify:       classifyPrompt,
		StructureTask:  structureTaskPrompt,
		StructureNote:  structureNotePrompt,
		TaskCategories: taskCategoriesPrompt,
		NoteCategories: noteCategoriesPrompt,
		DueTime:        dueTimePrompt,
		Steps:          stepsPrompt,
		Difficulty:     difficultyPrompt,
	}
}

// LoadPrompts reads a YAML file and overrides the default prompts with every
// non-empty entry it contains. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("read prompts file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return prompts, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	prompts.merge(override)
	return prompts, nil
}

func (p *Prompts) merge(o Prompts) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&p.Classify, o.Classify)
	set(&p.StructureTask, o.StructureTask)
	set(&p.StructureNote, o.StructureNote)
	set(&p.TaskCategories, o.TaskCategories)
	set(&p.NoteCategories, o.NoteCategories)
	set(&p.DueTime, o.DueTime)
	set(&p.Steps, o.Steps)
	set(&p.Difficulty, o.Difficulty)
}
