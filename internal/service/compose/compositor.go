package compose

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"

	"card-editor/internal/assets"
	"card-editor/internal/constants"
	"card-editor/internal/layout"
	"card-editor/internal/storage"
)

type ImageLoader interface {
	Load(ctx context.Context, src string) (*assets.Image, error)
	LoadAll(ctx context.Context, srcs []string) []assets.Result
}

type FontProvider interface {
	Face(name string, sizePx float64) (font.Face, error)
}

// Job: снимок всего, что нужно для одного экспорта.
type Job struct {
	Template *storage.Template
	Spec     layout.CategorySpec
	Elements []storage.ElementState
	Style    layout.Style
}

type Output struct {
	Image       []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Assets: загруженные картинки, разложенные по элементам.
type Assets struct {
	Photos map[string]*assets.Image
	Base   *assets.Image
	// Logos[ruleID][i] == nil, если i-й логотип не загрузился
	Logos map[string][]*assets.Image
}

type Options struct {
	Format      string
	JPEGQuality int
}

type Compositor struct {
	log    *slog.Logger
	loader ImageLoader
	fonts  FontProvider
	opts   Options
}

func NewCompositor(log *slog.Logger, loader ImageLoader, fonts FontProvider, opts Options) *Compositor {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 95
	}
	return &Compositor{log: log, loader: loader, fonts: fonts, opts: opts}
}

func (c *Compositor) format() (imaging.Format, string, string) {
	switch strings.ToLower(c.opts.Format) {
	case "jpg", "jpeg":
		return imaging.JPEG, "image/jpeg", "jpg"
	default:
		return imaging.PNG, "image/png", "png"
	}
}

// Compose: загрузка, отрисовка и кодирование подряд.
func (c *Compositor) Compose(ctx context.Context, job Job) (*Output, error) {
	a, err := c.Load(ctx, job)
	if err != nil {
		return nil, err
	}
	return c.Encode(c.Draw(job, a))
}

// Load грузит картинки по слоям: фото, затем база шаблона, затем логотипы.
// Внутри слоя загрузки параллельны. Фото и логотипы — best effort,
// база обязательна.
func (c *Compositor) Load(ctx context.Context, job Job) (*Assets, error) {
	const op = "compose.Compositor.Load"

	a := &Assets{
		Photos: make(map[string]*assets.Image),
		Logos:  make(map[string][]*assets.Image),
	}

	var (
		photoIDs  []string
		photoSrcs []string
	)
	for _, el := range job.Elements {
		if el.Type == constants.RulePhoto && el.Value != "" {
			photoIDs = append(photoIDs, el.ID)
			photoSrcs = append(photoSrcs, el.Value)
		}
	}
	for i, res := range c.loader.LoadAll(ctx, photoSrcs) {
		if res.Err != nil {
			c.log.Warn("photo skipped",
				slog.String("op", op),
				slog.String("rule", photoIDs[i]),
				slog.String("error", res.Err.Error()),
			)
			continue
		}
		a.Photos[photoIDs[i]] = res.Image
	}

	base, err := c.loader.Load(ctx, job.Template.BaseImage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, &TemplateLoadError{Src: job.Template.BaseImage, Err: err})
	}
	a.Base = base

	type logoRef struct {
		ruleID string
		index  int
	}
	var (
		refs     []logoRef
		logoSrcs []string
	)
	for _, el := range job.Elements {
		if el.Type != constants.RuleLogo {
			continue
		}
		a.Logos[el.ID] = make([]*assets.Image, len(el.Logos))
		for i, l := range el.Logos {
			refs = append(refs, logoRef{ruleID: el.ID, index: i})
			logoSrcs = append(logoSrcs, l.Src)
		}
	}
	for i, res := range c.loader.LoadAll(ctx, logoSrcs) {
		ref := refs[i]
		if res.Err != nil {
			c.log.Warn("logo skipped",
				slog.String("op", op),
				slog.String("rule", ref.ruleID),
				slog.Int("index", ref.index),
				slog.String("error", res.Err.Error()),
			)
			continue
		}
		a.Logos[ref.ruleID][ref.index] = res.Image
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// Draw рисует слои в общем порядке layout.Phases.
func (c *Compositor) Draw(job Job, a *Assets) *Canvas {
	W, H := job.Spec.ExportWidth, job.Spec.ExportHeight

	var bg color.Color = color.Transparent
	if f, _, _ := c.format(); f == imaging.JPEG {
		bg = color.White
	}
	canvas := NewCanvas(W, H, bg)

	states := make(map[string]storage.ElementState, len(job.Elements))
	for _, el := range job.Elements {
		states[el.ID] = el
	}

	for _, phase := range layout.Phases() {
		switch phase {
		case layout.PhasePhoto:
			for _, rule := range layout.RulesIn(job.Template.Rules, phase) {
				img, ok := a.Photos[rule.ID]
				if !ok {
					continue
				}
				rect := layout.RuleRect(rule, float64(W), float64(H))
				canvas.DrawCover(img, rect, states[rule.ID].Scale)
			}
		case layout.PhaseTemplate:
			canvas.DrawScaled(a.Base, canvas.Image().Bounds())
		case layout.PhaseOverlay:
			for _, rule := range layout.RulesIn(job.Template.Rules, phase) {
				el, ok := states[rule.ID]
				if !ok {
					continue
				}
				rect := layout.RuleRect(rule, float64(W), float64(H))
				if rule.Type == constants.RuleLogo {
					c.drawLogos(canvas, job, el, rect, a.Logos[rule.ID])
				} else {
					c.drawText(canvas, job, rule, el, rect)
				}
			}
		}
	}

	return canvas
}

func (c *Compositor) drawLogos(canvas *Canvas, job Job, el storage.ElementState, rect layout.Rect, imgs []*assets.Image) {
	W := float64(job.Spec.ExportWidth)
	base := layout.LogoBaseSize(job.Template.Category, rect.H, W)
	gap := el.LogoGap * job.Spec.ScaleX()

	res := layout.LayoutLogos(el.Logos, gap, base, rect.W)
	for i := range el.Logos {
		if i >= len(imgs) || imgs[i] == nil {
			continue
		}
		b := imgs[i].Img.Bounds()
		fit := layout.FitContain(rect.X+res.Positions[i], res.Sizes[i], rect.Y, rect.H, b.Dx(), b.Dy())
		canvas.DrawScaled(imgs[i], fit.Pixels())
	}
}

func (c *Compositor) drawText(canvas *Canvas, job Job, rule storage.Rule, el storage.ElementState, rect layout.Rect) {
	const op = "compose.Compositor.drawText"

	if el.Value == "" {
		return
	}

	style := layout.TextStyle(job.Template.StyleMode, rule, job.Style)
	size := el.FontSize * job.Spec.ScaleY()

	face, err := c.fonts.Face(style.Font, size)
	if err != nil {
		c.log.Warn("text skipped", slog.String("op", op), slog.String("rule", rule.ID), slog.String("error", err.Error()))
		return
	}
	defer face.Close()

	col, err := assets.ParseHexColor(style.Color)
	if err != nil {
		col = color.NRGBA{A: 0xff}
	}

	canvas.DrawTextCentered(el.Value, face, col, rect)
}

func (c *Compositor) Encode(canvas *Canvas) (*Output, error) {
	const op = "compose.Compositor.Encode"

	format, contentType, ext := c.format()
	data, err := canvas.Encode(format, c.opts.JPEGQuality)
	if err != nil {
		var secErr *CanvasSecurityError
		if errors.As(err, &secErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := canvas.Image().Bounds()
	return &Output{
		Image:       data,
		ContentType: contentType,
		Extension:   ext,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
