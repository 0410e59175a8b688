package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"card-editor/internal/storage"
)

type TemplateUpdateProvider interface {
	UpdateTemplateAdmin(ctx context.Context, code string, update storage.TemplateAdmin) error
}

type Request struct {
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	BaseImage string         `json:"base_image"`
	StyleMode string         `json:"style_mode"`
	IsActive  bool           `json:"is_active"`
	Rules     []storage.Rule `json:"rules"`
}

func UpdateTemplateAdmin(log *slog.Logger, temp TemplateUpdateProvider, categories storage.CategorySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.UpdateTemplateAdmin"

		code := chi.URLParam(r, "code")
		if code == "" {
			http.Error(w, "неверный code шаблона", http.StatusBadRequest)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}
		if req.Rules == nil {
			req.Rules = []storage.Rule{}
		}

		tpl := storage.Template{
			Code:      code,
			Name:      req.Name,
			Category:  req.Category,
			BaseImage: req.BaseImage,
			StyleMode: req.StyleMode,
			Rules:     req.Rules,
		}
		if err := tpl.Validate(categories); err != nil {
			log.Warn("invalid template", slog.String("op", op), slog.String("code", code), slog.String("error", err.Error()))
			http.Error(w, "некорректный шаблон: "+err.Error(), http.StatusBadRequest)
			return
		}

		rulesJSON, err := json.Marshal(req.Rules)
		if err != nil {
			log.Error(fmt.Sprintf("%s: ошибка сериализации правил: %v", op, err))
			http.Error(w, "ошибка обработки правил шаблона", http.StatusInternalServerError)
			return
		}

		err = temp.UpdateTemplateAdmin(r.Context(), code, storage.TemplateAdmin{
			Code:      code,
			Name:      req.Name,
			Category:  req.Category,
			BaseImage: req.BaseImage,
			StyleMode: req.StyleMode,
			IsActive:  req.IsActive,
			Rules:     string(rulesJSON),
		})
		if err != nil {
			if errors.Is(err, storage.ErrTemplateNotFound) {
				http.Error(w, "шаблон не найден", http.StatusNotFound)
				return
			}
			log.Error(fmt.Sprintf("%s: %v", op, err))
			http.Error(w, "ошибка обновления шаблона", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
