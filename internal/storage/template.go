package storage

import (
	"errors"
	"fmt"

	"card-editor/internal/constants"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already exists")
	ErrInvalidTemplate  = errors.New("invalid template")
)

// CategorySet отвечает, известна ли категория. В рантайме это layout.Resolver
// с переопределениями из конфига.
type CategorySet interface {
	Has(category string) bool
}

// допуск на сумму процентов вида 33.3+66.7
const geomEpsilon = 1e-9

type Template struct {
	ID        int    `json:"ID"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BaseImage string `json:"base_image"`
	StyleMode string `json:"style_mode"`
	Rules     []Rule `json:"rules"`
	IsActive  bool   `json:"is_active"`
}

// Rule: область шаблона. x, y, width, height в процентах номинального холста.
type Rule struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Label      string   `json:"label"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	FontFamily string   `json:"fontFamily,omitempty"`
	FontColor  string   `json:"fontColor,omitempty"`
	Options    []string `json:"options,omitempty"`
}

type TemplateAdmin struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BaseImage string `json:"base_image"`
	StyleMode string `json:"style_mode"`
	IsActive  bool   `json:"is_active"`
	Rules     string `json:"rules"`
}

// IsTextual: text и dropdown рисуются одинаково.
func (r Rule) IsTextual() bool {
	return r.Type == constants.RuleText || r.Type == constants.RuleDropdown
}

// Validate проверяет шаблон перед сохранением и перед открытием редактора.
// Любая ошибка оборачивает ErrInvalidTemplate.
func (t *Template) Validate(categories CategorySet) error {
	const op = "storage.Template.Validate"

	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidTemplate, fmt.Sprintf(format, args...))
	}

	if categories == nil || !categories.Has(t.Category) {
		return invalid("unknown category %q", t.Category)
	}
	if t.StyleMode != constants.StyleDynamic && t.StyleMode != constants.StyleStatic {
		return invalid("unknown style mode %q", t.StyleMode)
	}
	if t.BaseImage == "" {
		return invalid("base image is required")
	}

	seen := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		if r.ID == "" {
			return invalid("rule %d: id is required", i)
		}
		if seen[r.ID] {
			return invalid("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true

		switch r.Type {
		case constants.RulePhoto, constants.RuleText, constants.RuleLogo:
		case constants.RuleDropdown:
			if len(r.Options) == 0 {
				return invalid("rule %q: dropdown without options", r.ID)
			}
		default:
			return invalid("rule %q: unknown type %q", r.ID, r.Type)
		}

		if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
			return invalid("rule %q: negative or empty geometry", r.ID)
		}
		if r.X+r.Width > 100+geomEpsilon || r.Y+r.Height > 100+geomEpsilon {
			return invalid("rule %q: region leaves the canvas", r.ID)
		}
	}

	return nil
}
