package close

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"card-editor/internal/service/editor"
)

type SessionCloser interface {
	Close(id string) error
}

// CloseSession: пользователь бросил редактирование, вызывается OnClose сессии.
func CloseSession(log *slog.Logger, sessions SessionCloser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.editor.CloseSession"

		id := chi.URLParam(r, "id")

		if err := sessions.Close(id); err != nil {
			if errors.Is(err, editor.ErrSessionNotFound) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to close session")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
