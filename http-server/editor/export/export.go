package export

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"card-editor/internal/service/compose"
	"card-editor/internal/service/editor"
)

type SessionProvider interface {
	Get(id string) (*editor.Session, error)
}

// ExportSession собирает итоговую картинку и отдаёт её файлом.
// X-Primary-Text содержит основной текст, экранированный как query-параметр.
func ExportSession(log *slog.Logger, sessions SessionProvider, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.editor.ExportSession"

		id := chi.URLParam(r, "id")
		log := log.With(slog.String("op", op), slog.String("session", id))

		s, err := sessions.Get(id)
		if err != nil {
			if errors.Is(err, editor.ErrSessionNotFound) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("Failed to get session", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res, err := s.Export(ctx)
		if err != nil {
			var (
				tplErr *compose.TemplateLoadError
				secErr *compose.CanvasSecurityError
			)
			switch {
			case errors.Is(err, compose.ErrExportInProgress):
				http.Error(w, "Export is already in progress", http.StatusConflict)
			case errors.Is(err, context.DeadlineExceeded):
				log.Error("Export timed out", slog.String("error", err.Error()))
				http.Error(w, "Export timed out", http.StatusGatewayTimeout)
			case errors.As(err, &tplErr):
				log.Error("Template image failed to load", slog.String("error", err.Error()))
				http.Error(w, "Template image could not be loaded", http.StatusBadGateway)
			case errors.As(err, &secErr):
				log.Error("Canvas is tainted", slog.String("error", err.Error()))
				http.Error(w, secErr.Error(), http.StatusInternalServerError)
			default:
				log.Error("Export failed", slog.String("error", err.Error()))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
		w.Header().Set("X-Primary-Text", url.QueryEscape(res.PrimaryText))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Image)
	}
}
