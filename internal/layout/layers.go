package layout

import (
	"card-editor/internal/constants"
	"card-editor/internal/storage"
)

// Phase: слой отрисовки. Порядок общий для превью и экспорта.
type Phase int

const (
	PhasePhoto Phase = iota + 1
	PhaseTemplate
	PhaseOverlay
)

var phases = []Phase{PhasePhoto, PhaseTemplate, PhaseOverlay}

// Phases возвращает слои снизу вверх.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

func (p Phase) String() string {
	switch p {
	case PhasePhoto:
		return "photo"
	case PhaseTemplate:
		return "template"
	case PhaseOverlay:
		return "overlay"
	}
	return "unknown"
}

// PhaseOf: в каком слое рисуется правило. Базовая картинка шаблона
// правилом не является и всегда идёт в PhaseTemplate.
func PhaseOf(ruleType string) Phase {
	if ruleType == constants.RulePhoto {
		return PhasePhoto
	}
	return PhaseOverlay
}

// RulesIn отбирает правила слоя с сохранением исходного порядка.
func RulesIn(rules []storage.Rule, p Phase) []storage.Rule {
	var out []storage.Rule
	for _, r := range rules {
		if PhaseOf(r.Type) == p {
			out = append(out, r)
		}
	}
	return out
}
