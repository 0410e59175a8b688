package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"card-editor/internal/storage"
)

type TemplateCreateProvider interface {
	CreateTemplateAdmin(ctx context.Context, res storage.TemplateAdmin) error
}

type Request struct {
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	BaseImage string         `json:"base_image"`
	StyleMode string         `json:"style_mode"`
	IsActive  bool           `json:"is_active"`
	Rules     []storage.Rule `json:"rules"`
}

func SaveTemplateAdmin(log *slog.Logger, temp TemplateCreateProvider, categories storage.CategorySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.SaveTemplateAdmin"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}

		if req.Code == "" {
			http.Error(w, "поле code обязательно", http.StatusBadRequest)
			return
		}

		// Если Rules == nil, заменяем на пустой срез
		if req.Rules == nil {
			req.Rules = []storage.Rule{}
		}

		tpl := storage.Template{
			Code:      req.Code,
			Name:      req.Name,
			Category:  req.Category,
			BaseImage: req.BaseImage,
			StyleMode: req.StyleMode,
			Rules:     req.Rules,
		}
		if err := tpl.Validate(categories); err != nil {
			log.Warn("invalid template", slog.String("op", op), slog.String("code", req.Code), slog.String("error", err.Error()))
			http.Error(w, "некорректный шаблон: "+err.Error(), http.StatusBadRequest)
			return
		}

		rulesJSON, err := json.Marshal(req.Rules)
		if err != nil {
			log.Error(fmt.Sprintf("%s: ошибка сериализации правил: %v", op, err))
			http.Error(w, "ошибка обработки правил шаблона", http.StatusInternalServerError)
			return
		}

		err = temp.CreateTemplateAdmin(r.Context(), storage.TemplateAdmin{
			Code:      req.Code,
			Name:      req.Name,
			Category:  req.Category,
			BaseImage: req.BaseImage,
			StyleMode: req.StyleMode,
			IsActive:  req.IsActive,
			Rules:     string(rulesJSON),
		})
		if err != nil {
			if errors.Is(err, storage.ErrTemplateExists) {
				http.Error(w, "шаблон с таким code уже есть", http.StatusConflict)
				return
			}
			log.Error(fmt.Sprintf("%s: %v", op, err))
			http.Error(w, "ошибка создания шаблона", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "created"})
	}
}
