package editor

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"card-editor/internal/assets"
	"card-editor/internal/layout"
	"card-editor/internal/service/compose"
	"card-editor/internal/storage"
)

type MockTemplateProvider struct {
	mock.Mock
}

func (m *MockTemplateProvider) GetTemplateByCode(ctx context.Context, code string) (*storage.Template, error) {
	args := m.Called(ctx, code)
	if tpl, ok := args.Get(0).(*storage.Template); ok {
		return tpl, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRegistry(t *testing.T, provider TemplateProvider, closed *[]string) *Registry {
	t.Helper()
	return newTestRegistryWith(t, provider, newLoader(), closed)
}

func newTestRegistryWith(t *testing.T, provider TemplateProvider, loader compose.ImageLoader, closed *[]string) *Registry {
	t.Helper()
	fonts, err := assets.NewFontBook("")
	require.NoError(t, err)

	c := compose.NewCompositor(slog.Default(), loader, fonts, compose.Options{})
	return NewRegistry(slog.Default(), provider, layout.NewResolver(nil), c,
		layout.Style{Font: "Go", Color: "#000000"},
		func(tpl *storage.Template) Callbacks {
			return Callbacks{OnClose: func() { *closed = append(*closed, tpl.Code) }}
		})
}

func TestRegistry_OpenGetClose(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(idcardTemplate(), nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	s, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.Snapshot().Elements, 4)
	assert.Equal(t, []string{s.ID}, r.IDs())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, r.Close(s.ID))
	assert.Equal(t, []string{"ID-01"}, closed)

	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Close(s.ID), ErrSessionNotFound)

	provider.AssertExpectations(t)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(idcardTemplate(), nil).Twice()

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	a, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	b, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	require.NoError(t, a.SetValue("name", "Alice"))
	assert.Equal(t, "", b.Snapshot().Elements[2].Value)
}

func TestRegistry_OpenUnknownTemplate(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "nope").Return(nil, storage.ErrTemplateNotFound)

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	_, err := r.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)
	assert.Empty(t, r.IDs())
}

func TestRegistry_OpenUnknownCategory(t *testing.T) {
	tpl := idcardTemplate()
	tpl.Category = "badge"
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(tpl, nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	_, err := r.Open(context.Background(), "ID-01")
	assert.ErrorIs(t, err, layout.ErrUnknownCategory)
}

func TestRegistry_DefaultFileName(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(idcardTemplate(), nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	s, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	require.NotNil(t, s.cb.FileName)
	assert.Equal(t, "Staff_card_Guest.png", s.cb.FileName("Staff card", "Guest", "png"))
}

// Тест: правило выходит за холст, сессия не открывается
func TestRegistry_OpenInvalidTemplate(t *testing.T) {
	tpl := idcardTemplate()
	tpl.Rules[0].X = 10
	tpl.Rules[0].Width = 95
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(tpl, nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)

	_, err := r.Open(context.Background(), "ID-01")
	assert.ErrorIs(t, err, storage.ErrInvalidTemplate)
	assert.Empty(t, r.IDs())
}

func TestRegistry_OpenConfigCategory(t *testing.T) {
	tpl := idcardTemplate()
	tpl.Category = "badge"
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(tpl, nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)
	r.categories = layout.NewResolver(map[string]layout.CategorySpec{"badge": {
		PreviewWidth: 300, PreviewHeight: 200, ExportWidth: 900, ExportHeight: 600,
		DefaultFontSize: 20, DefaultLogoGap: 10,
	}})

	s, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	assert.Equal(t, 900, s.Snapshot().Spec.ExportWidth)
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func TestRegistry_SweepClosesIdleSessions(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(idcardTemplate(), nil)

	var closed []string
	r := newTestRegistry(t, provider, &closed)
	c := &clock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	r.now = c.now

	active, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)
	abandoned, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)

	c.t = c.t.Add(30 * time.Minute)
	_, err = r.Get(active.ID)
	require.NoError(t, err)

	c.t = c.t.Add(40 * time.Minute)
	assert.Equal(t, []string{abandoned.ID}, r.Sweep(time.Hour))
	assert.Equal(t, []string{"ID-01"}, closed)
	assert.Equal(t, []string{active.ID}, r.IDs())

	_, err = r.Get(abandoned.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// blockingLoader держит загрузку базы шаблона до закрытия release.
type blockingLoader struct {
	*memLoader
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLoader) Load(ctx context.Context, src string) (*assets.Image, error) {
	if src == "/uploads/base.png" {
		b.once.Do(func() { close(b.entered) })
		<-b.release
	}
	return b.memLoader.Load(ctx, src)
}

func (b *blockingLoader) LoadAll(ctx context.Context, srcs []string) []assets.Result {
	out := make([]assets.Result, len(srcs))
	for i, s := range srcs {
		img, err := b.Load(ctx, s)
		out[i] = assets.Result{Image: img, Err: err}
	}
	return out
}

func TestRegistry_SweepKeepsExportingSession(t *testing.T) {
	provider := new(MockTemplateProvider)
	provider.On("GetTemplateByCode", mock.Anything, "ID-01").Return(idcardTemplate(), nil)

	loader := &blockingLoader{memLoader: newLoader(), entered: make(chan struct{}), release: make(chan struct{})}
	var closed []string
	r := newTestRegistryWith(t, provider, loader, &closed)
	c := &clock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	r.now = c.now

	s, err := r.Open(context.Background(), "ID-01")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background())
		done <- err
	}()
	<-loader.entered

	c.t = c.t.Add(2 * time.Hour)
	assert.Empty(t, r.Sweep(time.Hour))
	assert.Equal(t, []string{s.ID}, r.IDs())

	close(loader.release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{s.ID}, r.Sweep(time.Hour))
	assert.Equal(t, []string{"ID-01"}, closed)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	var closed []string
	r := newTestRegistry(t, new(MockTemplateProvider), &closed)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
