// Package textimg rasterises short diagnostic text into images for upload
// as GL textures.
package textimg

import (
	"image"
	"image/color"
	"image/draw"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	GlyphWidth = 7 // basicfont.Face7x13
	LineHeight = 15
	Padding    = 4
)

// Rasterize draws lines, one per entry, white on transparent, with Padding
// pixels around the text.
func Rasterize(lines []string) *image.RGBA {
	longest := 0
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	img := image.NewRGBA(image.Rect(0, 0, longest*GlyphWidth+2*Padding, len(lines)*LineHeight+2*Padding))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: basicfont.Face7x13,
	}
	for i, l := range lines {
		d.Dot = fixed.P(Padding, Padding+i*LineHeight+basicfont.Face7x13.Ascent)
		d.DrawString(l)
	}
	return img
}
