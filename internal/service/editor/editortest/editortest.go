// Package editortest собирает редактор на картинках в памяти для тестов хендлеров.
package editortest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"card-editor/internal/assets"
	"card-editor/internal/layout"
	"card-editor/internal/service/compose"
	"card-editor/internal/service/editor"
	"card-editor/internal/storage"
)

// Loader отдаёт картинки из памяти. Src из Tainted возвращаются без CORS,
// Block, если задан, держит загрузку базы шаблона до закрытия канала.
type Loader struct {
	mu      sync.Mutex
	Images  map[string]image.Image
	Tainted map[string]bool

	Block   chan struct{}
	Entered chan struct{}
	once    sync.Once
}

func NewLoader() *Loader {
	return &Loader{
		Images: map[string]image.Image{
			"/uploads/base.png":  Solid(color.NRGBA{}),
			"/uploads/photo.png": Solid(color.NRGBA{R: 200, A: 255}),
			"/uploads/logo.png":  Solid(color.NRGBA{G: 200, A: 255}),
		},
		Tainted: map[string]bool{},
	}
}

func (l *Loader) Load(ctx context.Context, src string) (*assets.Image, error) {
	if l.Block != nil && src == "/uploads/base.png" {
		l.once.Do(func() { close(l.Entered) })
		<-l.Block
	}

	l.mu.Lock()
	img, ok := l.Images[src]
	tainted := l.Tainted[src]
	l.mu.Unlock()

	if !ok {
		return nil, &assets.AssetLoadError{Src: src, Err: errors.New("not found")}
	}
	return &assets.Image{Src: src, Img: img, CORSCleared: !tainted}, nil
}

func (l *Loader) LoadAll(ctx context.Context, srcs []string) []assets.Result {
	out := make([]assets.Result, len(srcs))
	for i, s := range srcs {
		img, err := l.Load(ctx, s)
		out[i] = assets.Result{Image: img, Err: err}
	}
	return out
}

func Solid(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// IDCard: пропуск с фото, выпадающим списком, текстом и логотипами.
func IDCard() *storage.Template {
	return &storage.Template{
		Code:      "ID-01",
		Name:      "Staff card",
		Category:  "idcard",
		BaseImage: "/uploads/base.png",
		StyleMode: "dynamic",
		IsActive:  true,
		Rules: []storage.Rule{
			{ID: "photo", Type: "photo", X: 10, Y: 10, Width: 80, Height: 40},
			{ID: "role", Type: "dropdown", X: 0, Y: 55, Width: 100, Height: 5, Options: []string{"Guest", "Staff"}},
			{ID: "name", Type: "text", X: 0, Y: 62, Width: 100, Height: 8},
			{ID: "logos", Type: "logo", X: 0, Y: 80, Width: 100, Height: 15},
		},
	}
}

// Broken: IDCard с фото, вылезающим за правый край холста.
func Broken() *storage.Template {
	tpl := IDCard()
	tpl.Code = "ID-BAD"
	tpl.Rules[0].Width = 95
	return tpl
}

type templates map[string]*storage.Template

func (t templates) GetTemplateByCode(_ context.Context, code string) (*storage.Template, error) {
	tpl, ok := t[code]
	if !ok {
		return nil, storage.ErrTemplateNotFound
	}
	return tpl, nil
}

// Exports: что пришло в OnExport.
type Exports struct {
	mu    sync.Mutex
	Names []string
	Texts []string
}

func (e *Exports) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Names)
}

// NewRegistry: реестр с шаблонами IDCard и Broken и PNG-экспортом.
func NewRegistry(t *testing.T, loader compose.ImageLoader) (*editor.Registry, *Exports) {
	t.Helper()

	fonts, err := assets.NewFontBook("")
	require.NoError(t, err)

	exports := &Exports{}
	c := compose.NewCompositor(slog.Default(), loader, fonts, compose.Options{Format: "png"})
	r := editor.NewRegistry(slog.Default(), templates{"ID-01": IDCard(), "ID-BAD": Broken()}, layout.NewResolver(nil), c,
		layout.Style{Font: "Go", Color: "#000000"},
		func(tpl *storage.Template) editor.Callbacks {
			return editor.Callbacks{
				OnExport: func(_ []byte, name, primary string) {
					exports.mu.Lock()
					defer exports.mu.Unlock()
					exports.Names = append(exports.Names, name)
					exports.Texts = append(exports.Texts, primary)
				},
			}
		})

	return r, exports
}
