package fonts

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"card-editor/internal/assets"
)

type FontProvider interface {
	Data(name string) ([]byte, error)
}

// GetFont отдаёт файл шрифта для @font-face превью.
func GetFont(log *slog.Logger, fonts FontProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resources.GetFont"

		family := chi.URLParam(r, "family")

		data, err := fonts.Data(family)
		if err != nil {
			if errors.Is(err, assets.ErrUnknownFont) {
				http.Error(w, "Font not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("family", family), slog.String("error", err.Error())).Error("Failed to get font")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		contentType := "font/ttf"
		if bytes.HasPrefix(data, []byte("OTTO")) {
			contentType = "font/otf"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
