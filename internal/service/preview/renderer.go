package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"card-editor/internal/assets"
	"card-editor/internal/constants"
	"card-editor/internal/layout"
	"card-editor/internal/storage"
)

const defaultFontsPath = "/resources/fonts"

type FontLister interface {
	Resolve(name string) string
}

// Input: всё, что нужно для одного кадра превью.
type Input struct {
	Template *storage.Template
	Spec     layout.CategorySpec
	Elements []storage.ElementState
	Style    layout.Style
	Zoom     Zoom
}

// Renderer рисует превью как HTML-фрагмент: один масштабируемый контейнер
// номинального размера и три абсолютных слоя в порядке layout.Phases.
type Renderer struct {
	tmpl      *template.Template
	fonts     FontLister
	fontsPath string
}

func NewRenderer(fonts FontLister, fontsPath string) *Renderer {
	if fontsPath == "" {
		fontsPath = defaultFontsPath
	}
	return &Renderer{
		tmpl:      template.Must(template.New("preview").Parse(previewHTML)),
		fonts:     fonts,
		fontsPath: strings.TrimRight(fontsPath, "/"),
	}
}

type view struct {
	Code       string
	Category   string
	Zoom       string
	FrameStyle template.CSS
	StageStyle template.CSS
	FontFaces  template.CSS
	Layers     []layerView
}

type layerView struct {
	Name  string
	Items []itemView
}

type itemView struct {
	Kind     string
	RuleID   string
	Style    template.CSS
	Src      template.URL
	HasSrc   bool
	ImgStyle template.CSS
	Text     string
	Slots    []slotView
}

type slotView struct {
	Index int
	Style template.CSS
	Src   template.URL
}

func (r *Renderer) Render(w io.Writer, in Input) error {
	const op = "preview.Renderer.Render"

	if in.Template == nil {
		return fmt.Errorf("%s: template is nil", op)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, r.build(in)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Renderer) build(in Input) view {
	W, H := in.Spec.PreviewWidth, in.Spec.PreviewHeight
	z := in.Zoom
	if z == 0 {
		z = DefaultZoom
	}
	z = z.Clamp()

	states := make(map[string]storage.ElementState, len(in.Elements))
	for _, el := range in.Elements {
		states[el.ID] = el
	}

	v := view{
		Code:     in.Template.Code,
		Category: in.Template.Category,
		Zoom:     z.String(),
		FrameStyle: template.CSS(fmt.Sprintf("position:relative;overflow:hidden;width:%s;height:%s",
			px(W*float64(z)), px(H*float64(z)))),
		StageStyle: template.CSS(fmt.Sprintf("position:absolute;left:0;top:0;width:%s;height:%s;transform:scale(%s);transform-origin:top left",
			px(W), px(H), z.String())),
	}

	families := map[string]bool{}

	for _, phase := range layout.Phases() {
		lv := layerView{Name: phase.String()}

		switch phase {
		case layout.PhasePhoto:
			for _, rule := range layout.RulesIn(in.Template.Rules, phase) {
				el := states[rule.ID]
				item := itemView{
					Kind:   constants.RulePhoto,
					RuleID: rule.ID,
					Style:  boxStyle(layout.RuleRect(rule, W, H)) + ";overflow:hidden",
				}
				if src, ok := safeURL(el.Value); ok {
					scale := el.Scale
					if scale < 1 {
						scale = 1
					}
					item.Src, item.HasSrc = src, true
					item.ImgStyle = template.CSS(fmt.Sprintf(
						"width:100%%;height:100%%;object-fit:cover;transform:scale(%s);transform-origin:center", num(scale)))
				}
				lv.Items = append(lv.Items, item)
			}

		case layout.PhaseTemplate:
			item := itemView{
				Kind:     "template",
				Style:    "position:absolute;left:0;top:0;width:100%;height:100%;pointer-events:none",
				ImgStyle: "width:100%;height:100%;display:block",
			}
			if src, ok := safeURL(in.Template.BaseImage); ok {
				item.Src, item.HasSrc = src, true
			}
			lv.Items = append(lv.Items, item)

		case layout.PhaseOverlay:
			for _, rule := range layout.RulesIn(in.Template.Rules, phase) {
				el, ok := states[rule.ID]
				if !ok {
					continue
				}
				rect := layout.RuleRect(rule, W, H)

				if rule.Type == constants.RuleLogo {
					lv.Items = append(lv.Items, logoItem(in.Template.Category, rule, el, rect, W))
					continue
				}

				st := layout.TextStyle(in.Template.StyleMode, rule, in.Style)
				family := r.fonts.Resolve(st.Font)
				families[family] = true

				col, err := assets.ParseHexColor(st.Color)
				if err != nil {
					col.A = 0xff
				}

				lv.Items = append(lv.Items, itemView{
					Kind:   rule.Type,
					RuleID: rule.ID,
					Style: boxStyle(rect) + template.CSS(fmt.Sprintf(
						";display:flex;align-items:center;justify-content:center;white-space:nowrap;overflow:visible;font-family:%s,sans-serif;color:%s;font-size:%s",
						cssString(family), assets.CSSColor(col), px(el.FontSize))),
					Text: el.Value,
				})
			}
		}

		v.Layers = append(v.Layers, lv)
	}

	v.FontFaces = r.fontFaces(families)
	return v
}

func logoItem(category string, rule storage.Rule, el storage.ElementState, rect layout.Rect, canvasW float64) itemView {
	item := itemView{
		Kind:   constants.RuleLogo,
		RuleID: rule.ID,
		Style:  boxStyle(rect),
	}

	base := layout.LogoBaseSize(category, rect.H, canvasW)
	res := layout.LayoutLogos(el.Logos, el.LogoGap, base, rect.W)
	for i, l := range el.Logos {
		src, ok := safeURL(l.Src)
		if !ok {
			continue
		}
		size := res.Sizes[i]
		item.Slots = append(item.Slots, slotView{
			Index: i,
			Src:   src,
			Style: template.CSS(fmt.Sprintf("position:absolute;left:%s;top:%s;width:%s;height:%s",
				px(res.Positions[i]), px((rect.H-size)/2), px(size), px(size))),
		})
	}
	return item
}

// fontFaces: @font-face для каждого семейства, которое реально используется.
func (r *Renderer) fontFaces(families map[string]bool) template.CSS {
	names := make([]string, 0, len(families))
	for f := range families {
		if f != "" {
			names = append(names, f)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, f := range names {
		fmt.Fprintf(&b, "@font-face{font-family:%s;src:url(%s);font-display:swap}\n",
			cssString(f), cssString(r.fontsPath+"/"+url.PathEscape(f)))
	}
	return template.CSS(b.String())
}

func boxStyle(r layout.Rect) template.CSS {
	return template.CSS(fmt.Sprintf("position:absolute;left:%s;top:%s;width:%s;height:%s",
		px(r.X), px(r.Y), px(r.W), px(r.H)))
}

// safeURL пропускает то же, что грузит assets.Loader: http(s), пути
// на origin приложения (относительные приводятся к пути от корня) и
// data:image.
func safeURL(src string) (template.URL, bool) {
	src = strings.TrimSpace(src)
	if strings.ContainsAny(src, "\"'<>\\\n\r") {
		return "", false
	}
	kind, ref := assets.ParseRef(src)
	switch kind {
	case assets.RefExternal, assets.RefLocal:
		return template.URL(ref), true
	case assets.RefData:
		if strings.HasPrefix(ref, "data:image/") {
			return template.URL(ref), true
		}
	}
	return "", false
}

// cssString: строка CSS в двойных кавычках без символов, ломающих разметку.
func cssString(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '<', '>', '\n', '\r', ';', '{', '}':
			return -1
		}
		return r
	}, s)
	return `"` + s + `"`
}

func px(v float64) string {
	return num(v) + "px"
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

const previewHTML = `<div class="card-preview" data-template="{{.Code}}" data-category="{{.Category}}" data-zoom="{{.Zoom}}" style="{{.FrameStyle}}">
<style>{{.FontFaces}}</style>
<div class="card-stage" style="{{.StageStyle}}">
{{- range .Layers}}
<div class="card-layer" data-phase="{{.Name}}" style="position:absolute;left:0;top:0;width:100%;height:100%">
{{- range .Items}}
{{- if eq .Kind "logo"}}
<div class="card-item" data-kind="logo" data-rule="{{.RuleID}}" style="{{.Style}}">
{{- range .Slots}}
<div class="logo-slot" data-index="{{.Index}}" style="{{.Style}}"><img src="{{.Src}}" alt="" style="width:100%;height:100%;object-fit:contain"></div>
{{- end}}
</div>
{{- else if or (eq .Kind "text") (eq .Kind "dropdown")}}
<div class="card-item" data-kind="{{.Kind}}" data-rule="{{.RuleID}}" style="{{.Style}}">{{.Text}}</div>
{{- else}}
<div class="card-item" data-kind="{{.Kind}}"{{if .RuleID}} data-rule="{{.RuleID}}"{{end}} style="{{.Style}}">
{{- if .HasSrc}}<img src="{{.Src}}" alt="" style="{{.ImgStyle}}">{{end -}}
</div>
{{- end}}
{{- end}}
</div>
{{- end}}
</div>
</div>
`
