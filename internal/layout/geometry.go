package layout

import (
	"image"
	"math"

	"card-editor/internal/storage"
)

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RuleRect переводит проценты правила в абсолютный прямоугольник холста w x h.
func RuleRect(r storage.Rule, w, h float64) Rect {
	return Rect{
		X: r.X / 100 * w,
		Y: r.Y / 100 * h,
		W: r.Width / 100 * w,
		H: r.Height / 100 * h,
	}
}

// Pixels округляет края (а не размеры), чтобы соседние области не давали щелей.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)),
		int(math.Round(r.Y+r.H)),
	)
}

func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{X: r.X * sx, Y: r.Y * sy, W: r.W * sx, H: r.H * sy}
}

// CoverCrop: окно исходника с пропорциями dstW:dstH, покрывающее цель (cover),
// уменьшенное в zoom раз вокруг центра. zoom < 1 считается за 1.
func CoverCrop(srcW, srcH int, dstW, dstH, zoom float64) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	if zoom < 1 {
		zoom = 1
	}

	sw, sh := float64(srcW), float64(srcH)
	target := dstW / dstH

	cw, ch := sw, sw/target
	if ch > sh {
		ch = sh
		cw = sh * target
	}
	cw /= zoom
	ch /= zoom

	x0 := (sw - cw) / 2
	y0 := (sh - ch) / 2

	rect := image.Rect(
		int(math.Round(x0)),
		int(math.Round(y0)),
		int(math.Round(x0+cw)),
		int(math.Round(y0+ch)),
	)
	if rect.Dx() < 1 {
		rect.Max.X = rect.Min.X + 1
	}
	if rect.Dy() < 1 {
		rect.Max.Y = rect.Min.Y + 1
	}
	return rect.Intersect(image.Rect(0, 0, srcW, srcH))
}
