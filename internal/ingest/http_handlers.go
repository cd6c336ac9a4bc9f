package ingest

import (
	"errors"
	"net/http"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/httpjson"
	"taskpad-backend/internal/logger"
	"taskpad-backend/internal/pipeline"
)

type handleRequest struct {
	Input *string `json:"input"`
}

type failureResponse struct {
	Branch string `json:"branch"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

type handleResponse struct {
	Success      bool              `json:"success"`
	TasksCreated int               `json:"tasksCreated"`
	NotesCreated int               `json:"notesCreated"`
	Message      string            `json:"message"`
	Failures     []failureResponse `json:"failures,omitempty"`
}

// StatusFor maps an ingest error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput), errors.Is(err, ErrInputTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrLowConfidence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ai.ErrInference):
		return http.StatusBadGateway
	case pipeline.IsInferenceFailure(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func HandleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body handleRequest
		if err := httpjson.Decode(w, r, &body); err != nil || body.Input == nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid input - text is required")
			return
		}

		res, err := svc.Handle(r.Context(), analytics.FromRequest(r), *body.Input)
		if err != nil {
			status := StatusFor(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				logger.FromContext(r.Context()).Error("Ingest failed", "error", err)
				msg = "Failed to process text"
			}
			httpjson.Error(w, status, msg)
			return
		}

		resp := handleResponse{
			Success:      true,
			TasksCreated: res.TasksCreated,
			NotesCreated: res.NotesCreated,
			Message:      Message(res),
		}
		for _, f := range res.Failures {
			resp.Failures = append(resp.Failures, failureResponse{
				Branch: string(f.Branch),
				Stage:  f.Stage,
				Error:  f.Err.Error(),
			})
		}

		httpjson.Write(w, http.StatusOK, resp)
	}
}
