package get

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"card-editor/internal/service/editor"
	"card-editor/internal/service/preview"
)

type SessionProvider interface {
	Get(id string) (*editor.Session, error)
}

type PreviewRenderer interface {
	Render(w io.Writer, in preview.Input) error
}

func GetSession(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.editor.GetSession"

		s, ok := lookup(log, op, w, r, sessions)
		if !ok {
			return
		}

		render.JSON(w, r, s.Snapshot())
	}
}

// GetPreview отдаёт HTML-фрагмент превью; ?zoom= меняет только масштаб контейнера.
func GetPreview(log *slog.Logger, sessions SessionProvider, renderer PreviewRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.editor.GetPreview"

		s, ok := lookup(log, op, w, r, sessions)
		if !ok {
			return
		}

		snap := s.Snapshot()

		var buf bytes.Buffer
		err := renderer.Render(&buf, preview.Input{
			Template: snap.Template,
			Spec:     snap.Spec,
			Elements: snap.Elements,
			Style:    snap.Style,
			Zoom:     preview.ParseZoom(r.URL.Query().Get("zoom")),
		})
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to render preview")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}

func lookup(log *slog.Logger, op string, w http.ResponseWriter, r *http.Request, sessions SessionProvider) (*editor.Session, bool) {
	id := chi.URLParam(r, "id")

	s, err := sessions.Get(id)
	if err != nil {
		if errors.Is(err, editor.ErrSessionNotFound) {
			log.With(slog.String("op", op), slog.String("session", id)).Warn("Session not found")
			http.Error(w, "Session not found", http.StatusNotFound)
			return nil, false
		}
		log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to get session")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}
