package textimg

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRasterizeSize(t *testing.T) {
	img := Rasterize([]string{"line 3: Syntax error", "ok"})
	assert.Equal(t, image.Rect(0, 0, 20*GlyphWidth+2*Padding, 2*LineHeight+2*Padding), img.Bounds())

	empty := Rasterize([]string{""})
	assert.Equal(t, image.Rect(0, 0, 2*Padding, LineHeight+2*Padding), empty.Bounds())
}

func TestRasterizeDrawsInsidePadding(t *testing.T) {
	img := Rasterize([]string{"#"})
	b := img.Bounds()

	inked := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := img.RGBAAt(x, y).A
			if a == 0 {
				continue
			}
			inked++
			assert.True(t, x >= Padding && x < b.Max.X-Padding, "ink at x=%d", x)
			assert.True(t, y >= Padding && y < b.Max.Y-Padding, "ink at y=%d", y)
		}
	}
	assert.Positive(t, inked)
}
