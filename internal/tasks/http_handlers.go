package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/httpjson"
	"taskpad-backend/internal/logger"
)

type patchBody struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	Status      *domain.Status   `json:"status"`
	Difficulty  *int             `json:"difficulty"`
	// null clears the due time, absent leaves it unchanged
	DueTime    json.RawMessage `json:"dueTime"`
	Categories *[]string       `json:"categories"`
	Steps      *[]string       `json:"steps"`
}

func (b patchBody) toPatch() (domain.TaskPatch, error) {
	p := domain.TaskPatch{
		Title:       b.Title,
		Description: b.Description,
		Priority:    b.Priority,
		Status:      b.Status,
		Difficulty:  b.Difficulty,
		Categories:  b.Categories,
		Steps:       b.Steps,
	}

	switch raw := strings.TrimSpace(string(b.DueTime)); raw {
	case "":
	case "null":
		p.ClearDueTime = true
	default:
		var due time.Time
		if err := json.Unmarshal(b.DueTime, &due); err != nil {
			return p, errors.New("dueTime must be an RFC 3339 timestamp or null")
		}
		p.DueTime = &due
	}
	return p, nil
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "task not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.FromContext(r.Context()).Error("Task store failed", "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
	}
}

func ListTasksHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := domain.TaskFilter{
			Status:   domain.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
			Category: q.Get("category"),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		result, err := store.List(r.Context(), filter)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		httpjson.Write(w, http.StatusOK, result)
	}
}

func GetTaskHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := store.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		httpjson.Write(w, http.StatusOK, task)
	}
}

func CreateTaskHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft domain.TaskDraft
		if err := httpjson.Decode(w, r, &draft); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		task, err := store.Create(r.Context(), draft)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		// analytics: task_created
		props := map[string]any{
			"task_id":      task.ID,
			"created_from": "manual",
			"text_len":     len(task.Title) + len(task.Description),
			"has_deadline": task.DueTime != nil,
			"priority":     task.Priority,
			"difficulty":   task.Difficulty,
		}
		_ = rec.Log(r.Context(), analytics.FromRequest(r), "task_created", props, analytics.SourceEventKeyFromRequest(r))

		httpjson.Write(w, http.StatusCreated, task)
	}
}

func UpdateTaskHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var body patchBody
		if err := httpjson.Decode(w, r, &body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		patch, err := body.toPatch()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var prevStatus domain.Status
		if patch.Status != nil {
			prev, err := store.Get(r.Context(), id)
			if err != nil {
				writeStoreError(w, r, err)
				return
			}
			prevStatus = prev.Status
		}

		task, err := store.Update(r.Context(), id, patch)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		env := analytics.FromRequest(r)
		key := analytics.SourceEventKeyFromRequest(r)

		// analytics: task_updated
		_ = rec.Log(r.Context(), env, "task_updated", map[string]any{
			"task_id":  task.ID,
			"text_len": len(task.Title) + len(task.Description),
		}, key)

		// analytics: task_completed / task_uncompleted
		if prevStatus != "" && prevStatus != task.Status {
			timeSinceCreated := int(time.Now().UTC().Sub(task.CreatedAt).Seconds())

			if prevStatus != domain.StatusDone && task.Status == domain.StatusDone {
				_ = rec.Log(r.Context(), env, "task_completed", map[string]any{
					"task_id":                task.ID,
					"priority_at_completion": task.Priority,
					"time_since_created_sec": timeSinceCreated,
				}, "")
			}
			if prevStatus == domain.StatusDone && task.Status != domain.StatusDone {
				_ = rec.Log(r.Context(), env, "task_uncompleted", map[string]any{
					"task_id":                task.ID,
					"priority_at_uncomplete": task.Priority,
				}, "")
			}
		}

		httpjson.Write(w, http.StatusOK, task)
	}
}

func DeleteTaskHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := store.Delete(r.Context(), id); err != nil {
			writeStoreError(w, r, err)
			return
		}

		_ = rec.Log(r.Context(), analytics.FromRequest(r), "task_deleted", map[string]any{"task_id": id}, analytics.SourceEventKeyFromRequest(r))

		w.WriteHeader(http.StatusNoContent)
	}
}
