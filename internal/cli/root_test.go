package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/app"
	"taskpad-backend/internal/auth"
	"taskpad-backend/internal/config"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/notes"
	"taskpad-backend/internal/tasks"
)

type noteClient struct{}

func (noteClient) Complete(_ context.Context, prompt, _ string, _ ai.Params) (string, error) {
	p := ai.DefaultPrompts()
	switch prompt {
	case p.Classify:
		return `{"kind":"note","confidence":0.9}`, nil
	case p.StructureNote:
		return `{"title":"Wi-Fi password","content":"guest / hunter2"}`, nil
	case p.NoteCategories:
		return `["reference"]`, nil
	}
	return "", &ai.Error{Op: "test", Err: errors.New("unexpected prompt")}
}

func testConfig() *config.Config {
	return &config.Config{
		Storage:       config.StorageMemory,
		LLMAPIKey:     "test",
		LLMTimeout:    time.Second,
		MinConfidence: 0.6,
		LogLevel:      "error",
		JWTSecret:     "s3cret",
	}
}

func execute(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := newRoot(testConfig, open)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProcessCmd(t *testing.T) {
	t.Run("Should store a note and print the summary", func(t *testing.T) {
		store := notes.NewMemoryStore()
		open := func(_ context.Context, cfg *config.Config, _ logger.Logger) (*app.App, error) {
			return app.New(cfg, logger.NewLogger(logger.TestConfig()), app.Deps{
				Client: noteClient{},
				Tasks:  tasks.NewMemoryStore(),
				Notes:  store,
			})
		}

		out, err := execute(t, open, "process", "wifi", "guest", "/", "hunter2")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Successfully processed: 0 tasks, 1 notes created\n"))
		assert.Contains(t, out, "note ")

		list, err := store.List(context.Background(), domain.NoteFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, []string{"reference"}, list[0].Categories)
	})

	t.Run("Should require text", func(t *testing.T) {
		_, err := execute(t, nil, "process")
		assert.Error(t, err)
	})

	t.Run("Should surface open failures", func(t *testing.T) {
		open := func(context.Context, *config.Config, logger.Logger) (*app.App, error) {
			return nil, errors.New("connect postgres: refused")
		}
		_, err := execute(t, open, "process", "Buy milk")
		assert.ErrorContains(t, err, "refused")
	})
}

func TestTokenCmd(t *testing.T) {
	t.Run("Should mint a token for the subject", func(t *testing.T) {
		out, err := execute(t, nil, "token", "--subject", "user-7", "--ttl", "1h")
		require.NoError(t, err)

		subject, err := auth.ParseToken([]byte("s3cret"), strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "user-7", subject)
	})

	t.Run("Should require a subject", func(t *testing.T) {
		_, err := execute(t, nil, "token")
		assert.Error(t, err)
	})
}

func TestMigrateCmd(t *testing.T) {
	t.Run("Should refuse in-memory storage", func(t *testing.T) {
		_, err := execute(t, nil, "migrate")
		assert.ErrorContains(t, err, "STORAGE=postgres")
	})
}
