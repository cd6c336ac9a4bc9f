package notes

import (
	"errors"
	"net/http"

	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/domain"
	"taskpad-backend/internal/httpjson"
	"taskpad-backend/internal/logger"
)

type patchBody struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Categories *[]string `json:"categories"`
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "note not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.FromContext(r.Context()).Error("Note store failed", "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
	}
}

func ListNotesHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := store.List(r.Context(), domain.NoteFilter{Category: r.URL.Query().Get("category")})
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, result)
	}
}

func GetNoteHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		note, err := store.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, note)
	}
}

func CreateNoteHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft domain.NoteDraft
		if err := httpjson.Decode(w, r, &draft); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		note, err := store.Create(r.Context(), draft)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		_ = rec.Log(r.Context(), analytics.FromRequest(r), "note_created", map[string]any{
			"note_id":      note.ID,
			"created_from": "manual",
			"text_len":     len(note.Title) + len(note.Content),
		}, analytics.SourceEventKeyFromRequest(r))

		httpjson.Write(w, http.StatusCreated, note)
	}
}

func UpdateNoteHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body patchBody
		if err := httpjson.Decode(w, r, &body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		note, err := store.Update(r.Context(), r.PathValue("id"), domain.NotePatch{
			Title:      body.Title,
			Content:    body.Content,
			Categories: body.Categories,
		})
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		_ = rec.Log(r.Context(), analytics.FromRequest(r), "note_updated", map[string]any{
			"note_id":  note.ID,
			"text_len": len(note.Title) + len(note.Content),
		}, analytics.SourceEventKeyFromRequest(r))

		httpjson.Write(w, http.StatusOK, note)
	}
}

func DeleteNoteHandler(store Store, rec analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := store.Delete(r.Context(), id); err != nil {
			writeStoreError(w, r, err)
			return
		}

		_ = rec.Log(r.Context(), analytics.FromRequest(r), "note_deleted", map[string]any{"note_id": id}, analytics.SourceEventKeyFromRequest(r))

		w.WriteHeader(http.StatusNoContent)
	}
}
