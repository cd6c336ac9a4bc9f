package pipeline

import (
	"fmt"
	"sync"
)

type State string

const (
	StateClassifying  State = "CLASSIFYING"
	StateTaskBranch   State = "TASK_BRANCH"
	StateNoteBranch   State = "NOTE_BRANCH"
	StateBothBranches State = "BOTH_BRANCHES"
	StateEnriching    State = "ENRICHING"
	StatePersisting   State = "PERSISTING"
	StateComplete     State = "COMPLETE"
	StateFailed       State = "FAILED"
)

// Lanes tracked by a run. The run lane walks Classifying to a branch state
// and then to a terminal state; each branch lane walks its own branch state
// through enrichment and persistence.
const (
	laneRun  = "run"
	laneTask = "task"
	laneNote = "note"
)

func IsTerminal(s State) bool {
	return s == StateComplete || s == StateFailed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateClassifying:
		return to == StateTaskBranch || to == StateNoteBranch || to == StateBothBranches || to == StateFailed
	case StateTaskBranch, StateNoteBranch:
		return to == StateEnriching || to == StateComplete || to == StateFailed
	case StateBothBranches:
		return to == StateComplete || to == StateFailed
	case StateEnriching:
		return to == StatePersisting
	case StatePersisting:
		return to == StateComplete || to == StateFailed
	default:
		return false
	}
}

// Transition is one observed state change.
type Transition struct {
	Lane string
	From State
	To   State
}

// tracker holds the current state of every lane of one run. Branch lanes run
// on separate goroutines, hence the mutex.
type tracker struct {
	mu       sync.Mutex
	lanes    map[string]State
	observer func(Transition)
}

func newTracker(observer func(Transition)) *tracker {
	return &tracker{
		lanes:    map[string]State{laneRun: StateClassifying},
		observer: observer,
	}
}

func (t *tracker) start(lane string, s State) {
	t.mu.Lock()
	t.lanes[lane] = s
	t.mu.Unlock()
}

func (t *tracker) state(lane string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lanes[lane]
}

func (t *tracker) to(lane string, next State) error {
	t.mu.Lock()
	cur, ok := t.lanes[lane]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("unknown lane %q", lane)
	}
	if !isAllowedTransition(cur, next) {
		t.mu.Unlock()
		return fmt.Errorf("disallowed transition for %q: %s -> %s", lane, cur, next)
	}
	t.lanes[lane] = next
	t.mu.Unlock()

	if t.observer != nil {
		t.observer(Transition{Lane: lane, From: cur, To: next})
	}
	return nil
}

// fail moves lane to Failed unless it is already terminal.
func (t *tracker) fail(lane string) {
	if IsTerminal(t.state(lane)) {
		return
	}
	_ = t.to(lane, StateFailed)
}
