package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyInput = errors.New("input text is empty")

type Branch string

const (
	BranchTask Branch = "task"
	BranchNote Branch = "note"
)

// BranchFailure records a branch that aborted while the run as a whole
// still persisted something.
type BranchFailure struct {
	Branch Branch
	Stage  string
	Err    error
}

func (f BranchFailure) Error() string {
	return fmt.Sprintf("%s branch failed at %s: %v", f.Branch, f.Stage, f.Err)
}

func (f BranchFailure) Unwrap() error { return f.Err }

func (f BranchFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Branch Branch `json:"branch"`
		Stage  string `json:"stage"`
		Error  string `json:"error"`
	}{f.Branch, f.Stage, msg})
}

const (
	stageStructure = "structure"
	stagePersist   = "persist"
	stageState     = "state"
)
