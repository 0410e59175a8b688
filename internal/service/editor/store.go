package editor

import (
	"errors"
	"fmt"
	"html"
	"sort"

	"github.com/microcosm-cc/bluemonday"

	"card-editor/internal/constants"
	"card-editor/internal/layout"
	"card-editor/internal/storage"
)

var (
	ErrRuleNotFound  = errors.New("rule not found")
	ErrWrongRuleType = errors.New("operation does not apply to rule type")
	ErrLogoIndex     = errors.New("logo index out of range")
	ErrInvalidOption = errors.New("value is not a dropdown option")
)

// текст пользователя без разметки: превью и экспорт рисуют одну и ту же строку
var textPolicy = bluemonday.StrictPolicy()

// Store: состояние элементов одной сессии. Не потокобезопасен,
// сериализацию обеспечивает Session.
type Store struct {
	template *storage.Template
	spec     layout.CategorySpec

	elements []storage.ElementState
	index    map[string]int

	sync            bool
	leftID, rightID string
}

func NewStore(tpl *storage.Template, spec layout.CategorySpec) *Store {
	s := &Store{}
	s.Initialize(tpl, spec)
	return s
}

// Initialize заново строит состояние по шаблону. Повторный вызов с тем же
// шаблоном даёт то же самое состояние.
func (s *Store) Initialize(tpl *storage.Template, spec layout.CategorySpec) {
	s.template = tpl
	s.spec = spec
	s.sync = false
	s.elements = make([]storage.ElementState, 0, len(tpl.Rules))
	s.index = make(map[string]int, len(tpl.Rules))

	for i, r := range tpl.Rules {
		el := storage.ElementState{
			ID:       r.ID,
			Type:     r.Type,
			Scale:    1,
			FontSize: spec.DefaultFontSize,
		}
		switch r.Type {
		case constants.RuleDropdown:
			if len(r.Options) > 0 {
				el.Value = r.Options[0]
			}
		case constants.RuleLogo:
			el.Logos = []storage.LogoItem{}
			el.LogoGap = spec.DefaultLogoGap
		}
		s.elements = append(s.elements, el)
		s.index[r.ID] = i
	}

	s.leftID, s.rightID = mirrorPair(tpl)
}

// mirrorPair выбирает у lanyard два самых левых text-правила (левое и правое).
func mirrorPair(tpl *storage.Template) (string, string) {
	if tpl.Category != constants.CategoryLanyard {
		return "", ""
	}

	var texts []storage.Rule
	for _, r := range tpl.Rules {
		if r.Type == constants.RuleText {
			texts = append(texts, r)
		}
	}
	if len(texts) < 2 {
		return "", ""
	}

	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })
	return texts[0].ID, texts[1].ID
}

func (s *Store) Template() *storage.Template { return s.template }

func (s *Store) Spec() layout.CategorySpec { return s.spec }

// Elements: копия состояния в порядке правил.
func (s *Store) Elements() []storage.ElementState {
	out := make([]storage.ElementState, len(s.elements))
	for i, el := range s.elements {
		out[i] = el.Clone()
	}
	return out
}

func (s *Store) Element(ruleID string) (storage.ElementState, error) {
	i, ok := s.index[ruleID]
	if !ok {
		return storage.ElementState{}, fmt.Errorf("%w: %q", ErrRuleNotFound, ruleID)
	}
	return s.elements[i].Clone(), nil
}

func (s *Store) SyncEnabled() bool { return s.sync }

// MirrorPair: id левого и правого текста, пустые если шаблон их не имеет.
func (s *Store) MirrorPair() (string, string) { return s.leftID, s.rightID }

// PrimaryText: значение первого text|dropdown элемента в порядке правил.
func (s *Store) PrimaryText() string {
	for _, el := range s.elements {
		if el.Type == constants.RuleText || el.Type == constants.RuleDropdown {
			return el.Value
		}
	}
	return ""
}

func (s *Store) lookup(ruleID string, types ...string) (*storage.ElementState, *storage.Rule, error) {
	i, ok := s.index[ruleID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrRuleNotFound, ruleID)
	}
	el := &s.elements[i]
	if len(types) > 0 {
		match := false
		for _, t := range types {
			if el.Type == t {
				match = true
				break
			}
		}
		if !match {
			return nil, nil, fmt.Errorf("%w: %q is %s", ErrWrongRuleType, ruleID, el.Type)
		}
	}
	return el, &s.template.Rules[i], nil
}

// SetValue заменяет значение text/dropdown/photo. Для logo принимает
// сериализованную коллекцию; битая строка даёт пустую коллекцию и
// storage.ErrInvalidLogoData, состояние при этом обновляется.
func (s *Store) SetValue(ruleID, value string) error {
	el, rule, err := s.lookup(ruleID)
	if err != nil {
		return err
	}

	switch el.Type {
	case constants.RuleText:
		el.Value = cleanText(value)
	case constants.RuleDropdown:
		v := cleanText(value)
		if !contains(rule.Options, v) {
			return fmt.Errorf("%w: %q", ErrInvalidOption, v)
		}
		el.Value = v
	case constants.RulePhoto:
		el.Value = value
	case constants.RuleLogo:
		logos, decodeErr := storage.DecodeLogos(value)
		for i := range logos {
			logos[i].Scale = clampLogoScale(logos[i].Scale)
		}
		el.Logos = logos
		if decodeErr != nil {
			return decodeErr
		}
		return nil
	}

	if s.sync && ruleID == s.leftID {
		s.elements[s.index[s.rightID]].Value = el.Value
	}
	return nil
}

// SetSync: включение один раз копирует левый текст в правый,
// выключение ничего не откатывает.
func (s *Store) SetSync(enabled bool) {
	s.sync = enabled
	if !enabled || s.leftID == "" {
		return
	}
	s.elements[s.index[s.rightID]].Value = s.elements[s.index[s.leftID]].Value
}

func (s *Store) AddLogo(ruleID, src string) error {
	el, _, err := s.lookup(ruleID, constants.RuleLogo)
	if err != nil {
		return err
	}
	if src == "" {
		return fmt.Errorf("%w: empty src", storage.ErrInvalidLogoData)
	}
	el.Logos = append(el.Logos, storage.LogoItem{Src: src, Scale: 1})
	return nil
}

func (s *Store) RemoveLogo(ruleID string, index int) error {
	el, _, err := s.lookup(ruleID, constants.RuleLogo)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(el.Logos) {
		return fmt.Errorf("%w: %d", ErrLogoIndex, index)
	}
	logos := make([]storage.LogoItem, 0, len(el.Logos)-1)
	logos = append(logos, el.Logos[:index]...)
	el.Logos = append(logos, el.Logos[index+1:]...)
	return nil
}

func (s *Store) SetLogoScale(ruleID string, index int, scale float64) error {
	el, _, err := s.lookup(ruleID, constants.RuleLogo)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(el.Logos) {
		return fmt.Errorf("%w: %d", ErrLogoIndex, index)
	}
	el.Logos[index].Scale = clampLogoScale(scale)
	return nil
}

func (s *Store) SetLogoGap(ruleID string, gap float64) error {
	el, _, err := s.lookup(ruleID, constants.RuleLogo)
	if err != nil {
		return err
	}
	el.LogoGap = max(gap, 0)
	return nil
}

func (s *Store) SetPhotoScale(ruleID string, scale float64) error {
	el, _, err := s.lookup(ruleID, constants.RulePhoto)
	if err != nil {
		return err
	}
	el.Scale = clamp(scale, constants.PhotoScaleMin, constants.PhotoScaleMax)
	return nil
}

func (s *Store) SetFontSize(ruleID string, size float64) error {
	el, _, err := s.lookup(ruleID, constants.RuleText, constants.RuleDropdown)
	if err != nil {
		return err
	}
	el.FontSize = clamp(size, constants.FontSizeMin, constants.FontSizeMax)
	return nil
}

func cleanText(v string) string {
	return html.UnescapeString(textPolicy.Sanitize(v))
}

func clampLogoScale(v float64) float64 {
	if v == 0 {
		return 1
	}
	return clamp(v, constants.LogoScaleMin, constants.LogoScaleMax)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
