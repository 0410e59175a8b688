package layout

import (
	"card-editor/internal/constants"
	"card-editor/internal/storage"
)

// Style: глобальные шрифт и цвет сессии редактора.
type Style struct {
	Font  string `json:"font"`
	Color string `json:"color"`
}

// TextStyle выбирает шрифт/цвет текста: в static режиме правило главнее,
// в dynamic — глобальный стиль. Пустые значения добирает из другого источника.
func TextStyle(styleMode string, rule storage.Rule, global Style) Style {
	ruleStyle := Style{Font: rule.FontFamily, Color: rule.FontColor}

	primary, secondary := global, ruleStyle
	if styleMode == constants.StyleStatic {
		primary, secondary = ruleStyle, global
	}

	if primary.Font == "" {
		primary.Font = secondary.Font
	}
	if primary.Color == "" {
		primary.Color = secondary.Color
	}
	return primary
}
