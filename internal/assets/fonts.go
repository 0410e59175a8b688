package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

const DefaultFontFamily = "Go"

var ErrUnknownFont = errors.New("unknown font family")

type fontFamily struct {
	name string
	data []byte
	font *opentype.Font
}

// FontBook: реестр семейств шрифтов для превью (@font-face) и экспорта.
// Встроенные Go-шрифты есть всегда, остальные читаются из каталога.
type FontBook struct {
	mu       sync.RWMutex
	families map[string]*fontFamily
}

func NewFontBook(dir string) (*FontBook, error) {
	const op = "assets.NewFontBook"

	b := &FontBook{families: make(map[string]*fontFamily)}

	builtin := []struct {
		name string
		data []byte
	}{
		{DefaultFontFamily, goregular.TTF},
		{"Go Bold", gobold.TTF},
		{"Go Italic", goitalic.TTF},
		{"Go Medium", gomedium.TTF},
		{"Go Mono", gomono.TTF},
		{"Go Smallcaps", gosmallcaps.TTF},
	}
	for _, f := range builtin {
		if err := b.Register(f.name, f.data); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if dir == "" {
		return b, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: read fonts dir: %w", op, err)
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if err := b.Register(name, data); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, e.Name(), err)
		}
	}

	return b, nil
}

func (b *FontBook) Register(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.families[key(name)] = &fontFamily{name: name, data: data, font: f}
	return nil
}

// Resolve возвращает каноническое имя семейства, неизвестные — шрифт по умолчанию.
func (b *FontBook) Resolve(name string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if f, ok := b.families[key(name)]; ok {
		return f.name
	}
	return DefaultFontFamily
}

func (b *FontBook) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.families[key(name)]
	return ok
}

// Face создаёт новый face размера sizePx (DPI 72, значит pt == px).
// opentype face не потокобезопасен, поэтому не кешируется; закрывает вызывающий.
func (b *FontBook) Face(name string, sizePx float64) (font.Face, error) {
	b.mu.RLock()
	f, ok := b.families[key(name)]
	if !ok {
		f = b.families[key(DefaultFontFamily)]
	}
	b.mu.RUnlock()

	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %q %.1fpx: %w", f.name, sizePx, err)
	}
	return face, nil
}

// Data: байты файла шрифта для отдачи в браузер.
func (b *FontBook) Data(name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.families[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFont, name)
	}
	return f.data, nil
}

func (b *FontBook) Families() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.families))
	for _, f := range b.families {
		out = append(out, f.name)
	}
	sort.Strings(out)
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
