package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/cors"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/auth"
	"taskpad-backend/internal/config"
	"taskpad-backend/internal/db"
	"taskpad-backend/internal/ingest"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/metrics"
	"taskpad-backend/internal/notes"
	"taskpad-backend/internal/pipeline"
	"taskpad-backend/internal/tasks"
)

// Deps are the outside-world collaborators of the service.
type Deps struct {
	Client   ai.Client
	Tasks    tasks.Store
	Notes    notes.Store
	Recorder analytics.Recorder
	DB       *sql.DB
}

type App struct {
	Config   *config.Config
	Log      logger.Logger
	Metrics  *metrics.Metrics
	Tasks    tasks.Store
	Notes    notes.Store
	Recorder analytics.Recorder
	Pipeline *pipeline.Pipeline
	Ingest   *ingest.Service

	db *sql.DB
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_JSON and makes
// it the default.
func NewLogger(cfg *config.Config, out io.Writer) logger.Logger {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(cfg.LogLevel)
	lc.JSON = cfg.LogJSON
	lc.Output = out
	log := logger.NewLogger(lc)
	logger.SetDefault(log)
	return log
}

// Open builds the LLM client and storage described by cfg.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	client, err := ai.New(ai.Options{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
		Retries: cfg.LLMRetries,
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{Client: client}
	switch cfg.Storage {
	case config.StorageMemory:
		deps.Tasks = tasks.NewMemoryStore()
		deps.Notes = notes.NewMemoryStore()
		deps.Recorder = analytics.LogRecorder{}
		log.Warn("Using in-memory storage, records are lost on exit")
	default:
		database, err := db.Connect(ctx, cfg.ConnString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		deps.DB = database
		deps.Tasks = tasks.NewPostgresStore(database)
		deps.Notes = notes.NewPostgresStore(database)
		deps.Recorder = analytics.NewSQLRecorder(database)
		log.Info("Connected to PostgreSQL", "host", cfg.DBHost, "db", cfg.DBName)
	}

	a, err := New(cfg, log, deps)
	if err != nil {
		_ = deps.close()
		return nil, err
	}
	return a, nil
}

// New wires the pipeline and ingest service over deps.
func New(cfg *config.Config, log logger.Logger, deps Deps) (*App, error) {
	prompts, err := ai.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	if cfg.PromptsFile != "" {
		log.Info("Loaded prompt overrides", "file", cfg.PromptsFile)
	}

	if deps.Recorder == nil {
		deps.Recorder = analytics.Nop{}
	}

	m := metrics.New()
	p := pipeline.New(deps.Client, deps.Tasks, deps.Notes,
		pipeline.WithPrompts(prompts),
		pipeline.WithModel(cfg.LLMModel),
		pipeline.WithMetrics(m),
	)

	return &App{
		Config:   cfg,
		Log:      log,
		Metrics:  m,
		Tasks:    deps.Tasks,
		Notes:    deps.Notes,
		Recorder: deps.Recorder,
		Pipeline: p,
		Ingest:   ingest.NewService(p, deps.Recorder, cfg.MinConfidence),
		db:       deps.DB,
	}, nil
}

// Routes returns the full HTTP surface with auth, CORS and request logging.
func (a *App) Routes() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/handle", ingest.HandleHandler(a.Ingest))

	api.HandleFunc("GET /api/tasks", tasks.ListTasksHandler(a.Tasks))
	api.HandleFunc("POST /api/tasks", tasks.CreateTaskHandler(a.Tasks, a.Recorder))
	api.HandleFunc("GET /api/tasks/{id}", tasks.GetTaskHandler(a.Tasks))
	api.HandleFunc("PATCH /api/tasks/{id}", tasks.UpdateTaskHandler(a.Tasks, a.Recorder))
	api.HandleFunc("DELETE /api/tasks/{id}", tasks.DeleteTaskHandler(a.Tasks, a.Recorder))

	api.HandleFunc("GET /api/notes", notes.ListNotesHandler(a.Notes))
	api.HandleFunc("POST /api/notes", notes.CreateNoteHandler(a.Notes, a.Recorder))
	api.HandleFunc("GET /api/notes/{id}", notes.GetNoteHandler(a.Notes))
	api.HandleFunc("PATCH /api/notes/{id}", notes.UpdateNoteHandler(a.Notes, a.Recorder))
	api.HandleFunc("DELETE /api/notes/{id}", notes.DeleteNoteHandler(a.Notes, a.Recorder))

	mux := http.NewServeMux()
	mux.Handle("/api/", auth.New([]byte(a.Config.JWTSecret)).Wrap(api))
	mux.HandleFunc("GET /health", a.health)
	mux.Handle("GET /metrics", a.Metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "Idempotency-Key", "X-Request-Id",
			"X-Platform", "X-App-Version", "X-Session-Id", "X-Device-Locale",
		},
		ExposedHeaders: []string{"X-Request-Id"},
	})

	return requestLogger(a.Log, c.Handler(mux))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.PingContext(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("Health check failed", "error", err)
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("OK"))
}

// DB returns the Postgres handle, or nil with in-memory storage.
func (a *App) DB() *sql.DB {
	return a.db
}

func (a *App) Close() error {
	return Deps{DB: a.db}.close()
}

func (d Deps) close() error {
	if d.DB == nil {
		return nil
	}
	if err := d.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
