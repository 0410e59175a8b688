package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseZoom(t *testing.T) {
	cases := map[string]Zoom{
		"":      1,
		"abc":   1,
		"NaN":   1,
		"+Inf":  1,
		"1.5":   1.5,
		"0.1":   0.5,
		"7":     3,
		"1.3":   1.25,
		"1.4":   1.5,
		" 2.0 ": 2,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseZoom(in), in)
	}
}

func TestZoom_InOut(t *testing.T) {
	z := DefaultZoom
	z = z.In()
	assert.Equal(t, Zoom(1.25), z)

	for i := 0; i < 20; i++ {
		z = z.In()
	}
	assert.Equal(t, Zoom(3), z)

	for i := 0; i < 20; i++ {
		z = z.Out()
	}
	assert.Equal(t, Zoom(0.5), z)
	assert.Equal(t, Zoom(0.75), z.In())
}

func TestZoom_String(t *testing.T) {
	assert.Equal(t, "1", DefaultZoom.String())
	assert.Equal(t, "0.75", Zoom(0.75).String())
}
