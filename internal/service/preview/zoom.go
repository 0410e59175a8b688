package preview

import (
	"math"
	"strconv"
	"strings"

	"card-editor/internal/constants"
)

// Zoom: визуальный масштаб превью. На геометрию правил не влияет.
type Zoom float64

const DefaultZoom Zoom = 1

// ParseZoom разбирает ?zoom=. Пустое или мусорное значение даёт 1,
// остальное прижимается к диапазону и шагу.
func ParseZoom(s string) Zoom {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultZoom
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultZoom
	}
	return Zoom(v).Clamp()
}

// Clamp прижимает к [ZoomMin, ZoomMax] и округляет до шага.
func (z Zoom) Clamp() Zoom {
	v := math.Round(float64(z)/constants.ZoomStep) * constants.ZoomStep
	return Zoom(min(max(v, constants.ZoomMin), constants.ZoomMax))
}

func (z Zoom) In() Zoom {
	return (z + constants.ZoomStep).Clamp()
}

func (z Zoom) Out() Zoom {
	return (z - constants.ZoomStep).Clamp()
}

func (z Zoom) String() string {
	return strconv.FormatFloat(float64(z), 'f', -1, 64)
}
