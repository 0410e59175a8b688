package open

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"card-editor/internal/layout"
	"card-editor/internal/service/editor"
	"card-editor/internal/storage"
)

type SessionOpener interface {
	Open(ctx context.Context, templateCode string) (*editor.Session, error)
}

type Request struct {
	TemplateCode string `json:"template_code"`
}

// OpenSession открывает редактор по коду шаблона и отдаёт начальное состояние.
func OpenSession(log *slog.Logger, sessions SessionOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.editor.OpenSession"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}
		if req.TemplateCode == "" {
			http.Error(w, "поле template_code обязательно", http.StatusBadRequest)
			return
		}

		s, err := sessions.Open(r.Context(), req.TemplateCode)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrTemplateNotFound):
				log.With(slog.String("op", op), slog.String("code", req.TemplateCode)).Warn("Template not found")
				http.Error(w, "Template not found", http.StatusNotFound)
			case errors.Is(err, storage.ErrInvalidTemplate):
				log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Template is invalid")
				http.Error(w, "Template is invalid", http.StatusUnprocessableEntity)
			case errors.Is(err, layout.ErrUnknownCategory):
				log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Template has unknown category")
				http.Error(w, "Template category is not supported", http.StatusUnprocessableEntity)
			default:
				log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to open editor")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, s.Snapshot())
	}
}
