package layout

import (
	"card-editor/internal/constants"
	"card-editor/internal/storage"
)

// LogoLayout: результат раскладки ряда логотипов внутри области.
// Positions и Sizes в тех же единицах, что containerWidth, от левого края области.
type LogoLayout struct {
	Positions      []float64
	Sizes          []float64
	Gap            float64
	EffectiveScale float64
	Total          float64
}

// LayoutLogos раскладывает логотипы слева направо по центру области.
// Если ряд не влезает, все размеры и зазор ужимаются одним коэффициентом.
// Одна и та же функция используется превью (визуальные px) и экспортом (px растра).
func LayoutLogos(logos []storage.LogoItem, gap, baseSize, containerWidth float64) LogoLayout {
	n := len(logos)
	res := LogoLayout{
		Positions:      make([]float64, 0, n),
		Sizes:          make([]float64, 0, n),
		EffectiveScale: 1,
	}
	if n == 0 {
		return res
	}
	if gap < 0 {
		gap = 0
	}

	naiveTotal := gap * float64(n-1)
	for _, l := range logos {
		naiveTotal += baseSize * l.Scale
	}

	shrink := 1.0
	total := naiveTotal
	if naiveTotal > containerWidth && naiveTotal > 0 {
		shrink = containerWidth / naiveTotal
		total = containerWidth
	}

	res.EffectiveScale = shrink
	res.Gap = gap * shrink
	res.Total = total

	x := containerWidth/2 - total/2
	for _, l := range logos {
		size := baseSize * l.Scale * shrink
		res.Positions = append(res.Positions, x)
		res.Sizes = append(res.Sizes, size)
		x += size + res.Gap
	}

	return res
}

// LogoBaseSize: базовый размер логотипа при scale=1.
// idcard: доля высоты области, lanyard: доля ширины всего холста.
// regionHeight и canvasWidth в одних единицах (превью или экспорт).
func LogoBaseSize(category string, regionHeight, canvasWidth float64) float64 {
	if category == constants.CategoryLanyard {
		return canvasWidth * constants.LanyardLogoWidthRatio
	}
	return regionHeight * constants.IDCardLogoHeightRatio
}

// FitContain вписывает картинку natW x natH в квадратный слот size,
// длинная сторона равна size, картинка по центру слота.
// slotX: левый край слота, regionY/regionH — вертикаль области.
func FitContain(slotX, size, regionY, regionH float64, natW, natH int) Rect {
	w, h := size, size
	if natW > 0 && natH > 0 {
		if natW >= natH {
			h = size * float64(natH) / float64(natW)
		} else {
			w = size * float64(natW) / float64(natH)
		}
	}
	return Rect{
		X: slotX + (size-w)/2,
		Y: regionY + (regionH-h)/2,
		W: w,
		H: h,
	}
}
