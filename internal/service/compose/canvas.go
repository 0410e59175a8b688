package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"card-editor/internal/assets"
	"card-editor/internal/layout"
)

// Canvas: растр экспорта. Помнит, какие не-CORS картинки на нём нарисованы.
type Canvas struct {
	img     *image.NRGBA
	tainted []string
}

func NewCanvas(w, h int, background color.Color) *Canvas {
	return &Canvas{img: imaging.New(w, h, background)}
}

func (c *Canvas) Image() *image.NRGBA { return c.img }

func (c *Canvas) Tainted() bool { return len(c.tainted) > 0 }

func (c *Canvas) mark(src *assets.Image) {
	if !src.CORSCleared {
		c.tainted = append(c.tainted, src.Src)
	}
}

// DrawScaled растягивает картинку целиком в dst.
func (c *Canvas) DrawScaled(src *assets.Image, dst image.Rectangle) {
	if dst.Empty() {
		return
	}
	c.mark(src)
	xdraw.CatmullRom.Scale(c.img, dst, src.Img, src.Img.Bounds(), xdraw.Over, nil)
}

// DrawCover рисует фото в dst по правилу cover; zoom > 1 берёт меньшее окно исходника.
func (c *Canvas) DrawCover(src *assets.Image, dst layout.Rect, zoom float64) {
	px := dst.Pixels()
	if px.Empty() {
		return
	}
	b := src.Img.Bounds()
	crop := layout.CoverCrop(b.Dx(), b.Dy(), dst.W, dst.H, zoom)
	if crop.Empty() {
		return
	}

	c.mark(src)
	cropped := imaging.Crop(src.Img, crop.Add(b.Min))
	resized := imaging.Resize(cropped, px.Dx(), px.Dy(), imaging.Lanczos)
	xdraw.Draw(c.img, px, resized, image.Point{}, xdraw.Over)
}

// DrawTextCentered центрирует строку в прямоугольнике по горизонтали и вертикали.
func (c *Canvas) DrawTextCentered(text string, face font.Face, col color.Color, dst layout.Rect) {
	if text == "" || face == nil {
		return
	}

	width := font.MeasureString(face, text)
	m := face.Metrics()
	textH := m.Ascent + m.Descent

	x := fixed.Int26_6(math.Round((dst.X + dst.W/2) * 64)) - width/2
	y := fixed.Int26_6(math.Round((dst.Y + dst.H/2) * 64)) - textH/2 + m.Ascent

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)
}

// Encode кодирует растр; испорченный холст не читается.
func (c *Canvas) Encode(format imaging.Format, jpegQuality int) ([]byte, error) {
	if c.Tainted() {
		return nil, &CanvasSecurityError{Sources: append([]string(nil), c.tainted...)}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode canvas: %w", err)
	}
	return buf.Bytes(), nil
}
