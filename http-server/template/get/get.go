package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"card-editor/internal/storage"
)

type TemplateJSON interface {
	GetTemplateByCode(ctx context.Context, code string) (*storage.Template, error)
	GetAllTemplates(ctx context.Context) ([]*storage.Template, error)

	GetTemplateByCodeAdmin(ctx context.Context, code string) (*storage.Template, error)
	GetAllTemplatesAdmin(ctx context.Context) ([]*storage.Template, error)
}

type ResponseTemplate struct {
	ID        int            `json:"ID"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	BaseImage string         `json:"base_image"`
	StyleMode string         `json:"style_mode"`
	Rules     []storage.Rule `json:"rules"`
}

type ResponseAllTemplates struct {
	Template []*storage.Template `json:"templates"`
	Error    string              `json:"error,omitempty"`
}

func GetTemplateByCode(log *slog.Logger, template TemplateJSON) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetTemplateByCode"

		code := r.URL.Query().Get("code")
		if code == "" {
			log.With(slog.String("op", op)).Error("Missing 'code' in query parameters")
			http.Error(w, "Missing required query parameter 'code'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tpl, err := template.GetTemplateByCode(ctx, code)
		if err != nil {
			if errors.Is(err, storage.ErrTemplateNotFound) {
				log.With(slog.String("op", op), slog.String("code", code)).Warn("Template not found")
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}

			log.With(
				slog.String("op", op),
				slog.String("code", code),
				slog.String("error", err.Error()),
			).Error("Failed to fetch template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseTemplate{
			ID:        tpl.ID,
			Code:      tpl.Code,
			Name:      tpl.Name,
			Category:  tpl.Category,
			BaseImage: tpl.BaseImage,
			StyleMode: tpl.StyleMode,
			Rules:     tpl.Rules,
		})
	}
}

func GetAllTemplates(log *slog.Logger, template TemplateJSON) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetAllTemplates"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		templates, err := template.GetAllTemplates(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to fetch templates")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseAllTemplates{Template: templates})
	}
}

// GetTemplateByCodeAdmin отдаёт шаблон целиком, в том числе неактивный.
func GetTemplateByCodeAdmin(log *slog.Logger, template TemplateJSON) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetTemplateByCodeAdmin"

		code := r.URL.Query().Get("code")
		if code == "" {
			log.With(slog.String("op", op)).Error("Missing 'code' in query parameters")
			http.Error(w, "Missing required query parameter 'code'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tpl, err := template.GetTemplateByCodeAdmin(ctx, code)
		if err != nil {
			if errors.Is(err, storage.ErrTemplateNotFound) {
				log.With(slog.String("op", op), slog.String("code", code)).Warn("Template not found")
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}

			log.With(
				slog.String("op", op),
				slog.String("code", code),
				slog.String("error", err.Error()),
			).Error("Failed to fetch template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, tpl)
	}
}

func GetAllTemplatesAdmin(log *slog.Logger, template TemplateJSON) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetAllTemplatesAdmin"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		templates, err := template.GetAllTemplatesAdmin(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to fetch templates")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseAllTemplates{Template: templates})
	}
}
