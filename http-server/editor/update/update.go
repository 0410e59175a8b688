package update

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"card-editor/internal/assets"
	"card-editor/internal/layout"
	"card-editor/internal/service/editor"
	"card-editor/internal/storage"
)

type SessionProvider interface {
	Get(id string) (*editor.Session, error)
}

// Response: состояние после изменения. Warning заполняется, когда изменение
// применено с деградацией (например, битые данные логотипов стали пустым списком).
type Response struct {
	editor.Snapshot
	Warning string `json:"warning,omitempty"`
}

type ValueRequest struct {
	RuleID string `json:"rule_id"`
	Value  string `json:"value"`
}

type SyncRequest struct {
	Enabled bool `json:"enabled"`
}

type LogoRequest struct {
	RuleID string  `json:"rule_id"`
	Src    string  `json:"src"`
	Index  int     `json:"index"`
	Scale  float64 `json:"scale"`
	Gap    float64 `json:"gap"`
}

type ScaleRequest struct {
	RuleID string  `json:"rule_id"`
	Scale  float64 `json:"scale"`
}

type FontSizeRequest struct {
	RuleID string  `json:"rule_id"`
	Size   float64 `json:"size"`
}

type StyleRequest struct {
	Font  string `json:"font"`
	Color string `json:"color"`
}

func SetValue(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetValue", func(s *editor.Session, body *json.Decoder) error {
		var req ValueRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		err := s.SetValue(req.RuleID, req.Value)
		if errors.Is(err, storage.ErrInvalidLogoData) {
			// состояние уже обновлено пустой коллекцией
			return &degradedError{err: err}
		}
		return err
	})
}

// SetSync включает/выключает зеркалирование левого текста в правый.
func SetSync(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetSync", func(s *editor.Session, body *json.Decoder) error {
		var req SyncRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		s.SetSync(req.Enabled)
		return nil
	})
}

func AddLogo(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.AddLogo", func(s *editor.Session, body *json.Decoder) error {
		var req LogoRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.AddLogo(req.RuleID, req.Src) })
	})
}

func RemoveLogo(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.RemoveLogo", func(s *editor.Session, body *json.Decoder) error {
		var req LogoRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.RemoveLogo(req.RuleID, req.Index) })
	})
}

func SetLogoScale(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetLogoScale", func(s *editor.Session, body *json.Decoder) error {
		var req LogoRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.SetLogoScale(req.RuleID, req.Index, req.Scale) })
	})
}

func SetLogoGap(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetLogoGap", func(s *editor.Session, body *json.Decoder) error {
		var req LogoRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.SetLogoGap(req.RuleID, req.Gap) })
	})
}

func SetPhotoScale(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetPhotoScale", func(s *editor.Session, body *json.Decoder) error {
		var req ScaleRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.SetPhotoScale(req.RuleID, req.Scale) })
	})
}

func SetFontSize(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetFontSize", func(s *editor.Session, body *json.Decoder) error {
		var req FontSizeRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		return s.Mutate(func(st *editor.Store) error { return st.SetFontSize(req.RuleID, req.Size) })
	})
}

// SetStyle меняет глобальные шрифт и цвет сессии.
func SetStyle(log *slog.Logger, sessions SessionProvider) http.HandlerFunc {
	return mutate(log, sessions, "handlers.editor.SetStyle", func(s *editor.Session, body *json.Decoder) error {
		var req StyleRequest
		if err := body.Decode(&req); err != nil {
			return errBadJSON
		}
		if req.Color != "" {
			if _, err := assets.ParseHexColor(req.Color); err != nil {
				return errBadColor
			}
		}
		s.SetStyle(layout.Style{Font: req.Font, Color: req.Color})
		return nil
	})
}

var (
	errBadJSON  = errors.New("ошибка парсинга JSON")
	errBadColor = errors.New("цвет должен быть в формате #rrggbb")
)

// degradedError: изменение применено, но не так, как просили.
type degradedError struct {
	err error
}

func (e *degradedError) Error() string { return e.err.Error() }

func (e *degradedError) Unwrap() error { return e.err }

func mutate(log *slog.Logger, sessions SessionProvider, op string, apply func(s *editor.Session, body *json.Decoder) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s, err := sessions.Get(id)
		if err != nil {
			if errors.Is(err, editor.ErrSessionNotFound) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to get session")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var (
			warning  string
			degraded *degradedError
		)

		err = apply(s, json.NewDecoder(r.Body))
		switch {
		case err == nil:
		case errors.Is(err, errBadJSON), errors.Is(err, errBadColor):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.As(err, &degraded):
			log.With(slog.String("op", op), slog.String("session", id), slog.String("error", err.Error())).Warn("Update applied with degradation")
			warning = err.Error()
		case errors.Is(err, editor.ErrRuleNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, editor.ErrWrongRuleType),
			errors.Is(err, editor.ErrLogoIndex),
			errors.Is(err, editor.ErrInvalidOption),
			errors.Is(err, storage.ErrInvalidLogoData):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		default:
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to update session")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Snapshot: s.Snapshot(), Warning: warning})
	}
}
