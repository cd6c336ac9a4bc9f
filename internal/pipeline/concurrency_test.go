package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.NewLogger(logger.TestConfig()))
	os.Exit(m.Run())
}

const barrierTimeout = 2 * time.Second

// barrierClient holds every gated prompt until all of them are in flight, so
// a sequential caller times out instead of proceeding.
type barrierClient struct {
	replies map[string]reply
	gated   map[string]bool
	release chan struct{}

	mu       sync.Mutex
	arrived  int
	timeouts int
}

func newBarrierClient(replies map[string]reply, gated ...string) *barrierClient {
	c := &barrierClient{
		replies: replies,
		gated:   make(map[string]bool, len(gated)),
		release: make(chan struct{}),
	}
	for _, p := range gated {
		c.gated[p] = true
	}
	return c
}

func (c *barrierClient) Complete(_ context.Context, prompt, _ string, _ ai.Params) (string, error) {
	if c.gated[prompt] {
		c.mu.Lock()
		c.arrived++
		if c.arrived == len(c.gated) {
			close(c.release)
		}
		c.mu.Unlock()

		select {
		case <-c.release:
		case <-time.After(barrierTimeout):
			c.mu.Lock()
			c.timeouts++
			c.mu.Unlock()
			return "", &ai.Error{Err: errors.New("gated calls were not in flight together")}
		}
	}

	r, ok := c.replies[prompt]
	if !ok {
		return "", &ai.Error{Err: errors.New("no scripted reply")}
	}
	return r.out, r.err
}

func (c *barrierClient) timedOut() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeouts
}

func TestPipeline_Concurrency(t *testing.T) {
	t.Run("Should run the four task enrichers at once", func(t *testing.T) {
		client := newBarrierClient(buyMilkReplies(),
			prompts.TaskCategories, prompts.Steps, prompts.Difficulty, prompts.DueTime)
		tasks := &fakeTasks{}

		res, err := newTestPipeline(client, tasks, &fakeNotes{}).Run(t.Context(), "Buy milk")
		require.NoError(t, err)

		assert.Zero(t, client.timedOut())
		assert.Equal(t, 1, res.TasksCreated)
		require.Len(t, tasks.created, 1)
		assert.Equal(t, []string{"shopping", "personal"}, tasks.created[0].Categories)
	})

	t.Run("Should structure both branches at once", func(t *testing.T) {
		client := newBarrierClient(bothReplies(), prompts.StructureTask, prompts.StructureNote)
		tasks, notes := &fakeTasks{}, &fakeNotes{}

		res, err := newTestPipeline(client, tasks, notes).Run(t.Context(), "Budget review Friday, capped at 40k")
		require.NoError(t, err)

		assert.Zero(t, client.timedOut())
		assert.Equal(t, 1, res.TasksCreated)
		assert.Equal(t, 1, res.NotesCreated)
		assert.Empty(t, res.Failures)
	})
}

func TestBranchFailure_MarshalJSON(t *testing.T) {
	f := BranchFailure{Branch: BranchTask, Stage: stageStructure, Err: errors.New("title is required")}

	raw, err := json.Marshal(Result{Failures: []BranchFailure{f}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"branch":"task","stage":"structure","error":"title is required"}`)
}
