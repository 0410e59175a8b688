package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"card-editor/internal/layout"
	"card-editor/internal/service/compose"
	"card-editor/internal/storage"
)

var ErrSessionNotFound = errors.New("editor session not found")

type TemplateProvider interface {
	GetTemplateByCode(ctx context.Context, code string) (*storage.Template, error)
}

type CategoryResolver interface {
	Resolve(category string) (layout.CategorySpec, error)
	Has(category string) bool
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Registry открывает сессии редактора и держит их до закрытия
// или до истечения простоя (см. Sweep).
type Registry struct {
	log        *slog.Logger
	templates  TemplateProvider
	categories CategoryResolver
	compositor *compose.Compositor
	style      layout.Style
	callbacks  func(tpl *storage.Template) Callbacks
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry. callbacks может быть nil, тогда сессии открываются без обработчиков,
// кроме имени файла по умолчанию.
func NewRegistry(log *slog.Logger, templates TemplateProvider, categories CategoryResolver,
	compositor *compose.Compositor, style layout.Style, callbacks func(tpl *storage.Template) Callbacks) *Registry {
	return &Registry{
		log:        log,
		templates:  templates,
		categories: categories,
		compositor: compositor,
		style:      style,
		callbacks:  callbacks,
		now:        time.Now,
		sessions:   make(map[string]*entry),
	}
}

func (r *Registry) Open(ctx context.Context, templateCode string) (*Session, error) {
	const op = "editor.Registry.Open"

	tpl, err := r.templates.GetTemplateByCode(ctx, templateCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spec, err := r.categories.Resolve(tpl.Category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tpl.Validate(r.categories); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cb Callbacks
	if r.callbacks != nil {
		cb = r.callbacks(tpl)
	}
	if cb.FileName == nil {
		cb.FileName = FileName
	}

	id := uuid.NewString()
	s := NewSession(id, r.log, tpl, spec, r.style, compose.NewExporter(r.log, r.compositor), cb)

	r.mu.Lock()
	r.sessions[id] = &entry{session: s, lastUsed: r.now()}
	r.mu.Unlock()

	r.log.Info("editor opened", slog.String("session", id), slog.String("template", tpl.Code))
	return s, nil
}

// Get отдаёт сессию и продлевает ей жизнь.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.lastUsed = r.now()
	return e.session, nil
}

// Close убирает сессию и вызывает её OnClose.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.session.Close()
	return nil
}

// Sweep закрывает сессии, к которым не обращались дольше idle
// (вкладку закрыли без DELETE). Сессию с идущим экспортом не трогает.
// Возвращает id закрытых сессий.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)

	var expired []*Session
	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastUsed.After(cutoff) || e.session.Exporting() {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, e.session)
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, s := range expired {
		r.log.Info("editor expired", slog.String("session", s.ID), slog.Duration("idle", idle))
		s.Close()
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

// Run периодически вызывает Sweep, пока не отменён ctx.
// idle <= 0 отключает истечение.
func (r *Registry) Run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(max(idle/4, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// IDs: открытые сессии, отсортированные.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
