package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"card-editor/internal/layout"
	"card-editor/internal/service/compose"
	"card-editor/internal/storage"
)

// Callbacks: внешний контракт редактора.
type Callbacks struct {
	// OnExport вызывается один раз на каждый успешный экспорт.
	OnExport func(image []byte, fileName, primaryText string)
	// OnClose вызывается, когда пользователь бросает редактирование.
	OnClose func()
	// FileName строит имя файла из имени шаблона и основного текста.
	FileName func(templateName, primaryText, ext string) string
}

// Export: результат экспорта для вызывающего.
type Export struct {
	Image       []byte
	ContentType string
	FileName    string
	PrimaryText string
}

// Snapshot: состояние сессии для API и превью.
type Snapshot struct {
	SessionID    string                 `json:"session_id"`
	TemplateCode string                 `json:"template_code"`
	Template     *storage.Template      `json:"-"`
	Spec         layout.CategorySpec    `json:"spec"`
	Elements     []storage.ElementState `json:"elements"`
	Style        layout.Style           `json:"style"`
	Sync         bool                   `json:"sync"`
	Exporter     string                 `json:"export_state"`
}

// Session держит одну сессию редактирования: шаблон, состояние элементов,
// глобальный стиль и экспорт. Все изменения идут под одним мьютексом.
type Session struct {
	ID string

	mu       sync.Mutex
	log      *slog.Logger
	store    *Store
	style    layout.Style
	exporter *compose.Exporter
	cb       Callbacks

	closeOnce sync.Once
}

func NewSession(id string, log *slog.Logger, tpl *storage.Template, spec layout.CategorySpec,
	style layout.Style, exporter *compose.Exporter, cb Callbacks) *Session {
	return &Session{
		ID:       id,
		log:      log.With(slog.String("session", id), slog.String("template", tpl.Code)),
		store:    NewStore(tpl, spec),
		style:    style,
		exporter: exporter,
		cb:       cb,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	tpl := s.store.Template()
	return Snapshot{
		SessionID:    s.ID,
		TemplateCode: tpl.Code,
		Template:     tpl,
		Spec:         s.store.Spec(),
		Elements:     s.store.Elements(),
		Style:        s.style,
		Sync:         s.store.SyncEnabled(),
		Exporter:     s.exporter.State().String(),
	}
}

// Mutate выполняет изменение стора под замком сессии.
func (s *Session) Mutate(fn func(st *Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

func (s *Session) SetValue(ruleID, value string) error {
	return s.Mutate(func(st *Store) error { return st.SetValue(ruleID, value) })
}

func (s *Session) SetSync(enabled bool) {
	_ = s.Mutate(func(st *Store) error { st.SetSync(enabled); return nil })
}

func (s *Session) SetStyle(style layout.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = style
}

// Reset заново инициализирует элементы по шаблону.
func (s *Session) Reset() {
	_ = s.Mutate(func(st *Store) error {
		st.Initialize(st.Template(), st.Spec())
		return nil
	})
}

// Export снимает копию состояния и запускает экспорт без замка, поэтому
// правки во время экспорта на результат не влияют. OnExport вызывается
// только при успехе.
func (s *Session) Export(ctx context.Context) (*Export, error) {
	const op = "editor.Session.Export"

	s.mu.Lock()
	snap := s.snapshot()
	primary := s.store.PrimaryText()
	s.mu.Unlock()

	out, err := s.exporter.Run(ctx, compose.Job{
		Template: snap.Template,
		Spec:     snap.Spec,
		Elements: snap.Elements,
		Style:    snap.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := ""
	if s.cb.FileName != nil {
		name = s.cb.FileName(snap.Template.Name, primary, out.Extension)
	}

	if s.cb.OnExport != nil {
		s.cb.OnExport(out.Image, name, primary)
	}

	return &Export{
		Image:       out.Image,
		ContentType: out.ContentType,
		FileName:    name,
		PrimaryText: primary,
	}, nil
}

// Exporting: экспорт сессии сейчас идёт.
func (s *Session) Exporting() bool { return s.exporter.InFlight() }

// Close вызывает OnClose не больше одного раза.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.log.Info("editor closed")
		if s.cb.OnClose != nil {
			s.cb.OnClose()
		}
	})
}

// FileName строит имя файла по умолчанию "<шаблон>_<текст>.<ext>" без символов,
// недопустимых в именах файлов.
func FileName(templateName, primaryText, ext string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{templateName, primaryText} {
		if p = safeName(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "card")
	}
	return strings.Join(parts, "_") + "." + ext
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			return r
		case unicode.IsSpace(r), r == '_', r == '.':
			return '_'
		}
		return -1
	}, strings.TrimSpace(s))
	return strings.Trim(s, "_")
}
