package layout

import (
	"errors"
	"fmt"

	"card-editor/internal/constants"
)

var ErrUnknownCategory = errors.New("unknown category")

// CategorySpec: константы категории. Превью и экспорт обязаны брать их
// из одного и того же Resolver, иначе геометрия разъедется.
type CategorySpec struct {
	Category        string  `json:"category"`
	PreviewWidth    float64 `json:"preview_width"`
	PreviewHeight   float64 `json:"preview_height"`
	ExportWidth     int     `json:"export_width"`
	ExportHeight    int     `json:"export_height"`
	DefaultFontSize float64 `json:"default_font_size"`
	DefaultLogoGap  float64 `json:"default_logo_gap"`
}

// ScaleX переводит визуальные единицы превью в px экспорта по горизонтали.
func (c CategorySpec) ScaleX() float64 {
	return float64(c.ExportWidth) / c.PreviewWidth
}

// ScaleY: то же по вертикали, используется для размера шрифта.
func (c CategorySpec) ScaleY() float64 {
	return float64(c.ExportHeight) / c.PreviewHeight
}

type Resolver struct {
	specs map[string]CategorySpec
}

// NewResolver собирает таблицу из constants, overrides заменяют ненулевые поля.
func NewResolver(overrides map[string]CategorySpec) *Resolver {
	specs := make(map[string]CategorySpec, len(constants.ExportSize))
	for category, exp := range constants.ExportSize {
		prev := constants.PreviewSize[category]
		specs[category] = CategorySpec{
			Category:        category,
			PreviewWidth:    prev[0],
			PreviewHeight:   prev[1],
			ExportWidth:     exp[0],
			ExportHeight:    exp[1],
			DefaultFontSize: constants.DefaultFontSize[category],
			DefaultLogoGap:  constants.DefaultLogoGap[category],
		}
	}

	for category, o := range overrides {
		s := specs[category]
		s.Category = category
		if o.PreviewWidth > 0 {
			s.PreviewWidth = o.PreviewWidth
		}
		if o.PreviewHeight > 0 {
			s.PreviewHeight = o.PreviewHeight
		}
		if o.ExportWidth > 0 {
			s.ExportWidth = o.ExportWidth
		}
		if o.ExportHeight > 0 {
			s.ExportHeight = o.ExportHeight
		}
		if o.DefaultFontSize > 0 {
			s.DefaultFontSize = o.DefaultFontSize
		}
		if o.DefaultLogoGap > 0 {
			s.DefaultLogoGap = o.DefaultLogoGap
		}
		specs[category] = s
	}

	return &Resolver{specs: specs}
}

func (r *Resolver) Resolve(category string) (CategorySpec, error) {
	const op = "layout.Resolver.Resolve"

	s, ok := r.specs[category]
	if !ok || s.PreviewWidth <= 0 || s.PreviewHeight <= 0 || s.ExportWidth <= 0 || s.ExportHeight <= 0 {
		return CategorySpec{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownCategory, category)
	}
	return s, nil
}

// Has: категория есть в таблице и у неё заданы все размеры.
func (r *Resolver) Has(category string) bool {
	_, err := r.Resolve(category)
	return err == nil
}
