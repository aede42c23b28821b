// Package colormap turns declarative gradient documents into GLSL lookup
// functions of the form `vec3 ColormapName(float x)`.
//
// A Library is parsed once at startup and passed by reference to whatever
// needs it; there is no package-level registry.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FunctionPrefix namespaces every generated colormap function.
const FunctionPrefix = "Colormap"

// Stop is one color stop of a gradient.
type Stop struct {
	Red, Green, Blue float64 // 0-255
	Position         float64 // 0-1
}

func (s Stop) shaderColor() string {
	return fmt.Sprintf("vec3(%.3f, %.3f, %.3f)", s.Red/255, s.Green/255, s.Blue/255)
}

func (s Stop) css() string {
	return fmt.Sprintf("rgb(%.1f, %.1f, %.1f) %.1f%%", s.Red, s.Green, s.Blue, s.Position*100)
}

// Colormap is a named gradient. Stops are ordered by ascending position.
type Colormap struct {
	Name  string
	Stops []Stop
}

// FunctionName returns the GLSL function name generated for the colormap,
// e.g. "viridis" becomes "ColormapViridis".
func (c Colormap) FunctionName() string {
	r, size := utf8.DecodeRuneInString(c.Name)
	if r == utf8.RuneError {
		return FunctionPrefix
	}
	return FunctionPrefix + string(unicode.ToUpper(r)) + c.Name[size:]
}

// Shader returns the GLSL source of the colormap function. It relies on
// `linearstep` being defined by the surrounding program.
func (c Colormap) Shader() string {
	var b strings.Builder
	fmt.Fprintf(&b, "vec3 %s(float x) {\n", c.FunctionName())

	for i, stop := range c.Stops {
		if i == 0 {
			fmt.Fprintf(&b, "  vec3 color = %s;\n", stop.shaderColor())
			continue
		}
		prev := c.Stops[i-1]
		fmt.Fprintf(&b, "  color = mix(color, %s, linearstep(%.3f, %.3f, x));\n",
			stop.shaderColor(), prev.Position, stop.Position)
	}

	b.WriteString("  return color;\n")
	b.WriteString("}")
	return b.String()
}

// At evaluates the colormap on the CPU with the same mix chain the generated
// shader uses.
func (c Colormap) At(x float64) color.NRGBA {
	if len(c.Stops) == 0 {
		return color.NRGBA{A: 0xff}
	}
	r, g, b := c.Stops[0].Red, c.Stops[0].Green, c.Stops[0].Blue
	for i := 1; i < len(c.Stops); i++ {
		prev, stop := c.Stops[i-1], c.Stops[i]
		t := linearstep(prev.Position, stop.Position, x)
		r = mix(r, stop.Red, t)
		g = mix(g, stop.Green, t)
		b = mix(b, stop.Blue, t)
	}
	return color.NRGBA{R: channel(r), G: channel(g), B: channel(b), A: 0xff}
}

// CSS renders the colormap as a CSS linear-gradient. An empty direction
// means "to right".
func (c Colormap) CSS(direction string) string {
	if direction == "" {
		direction = "to right"
	}
	stops := make([]string, len(c.Stops))
	for i, s := range c.Stops {
		stops[i] = s.css()
	}
	return fmt.Sprintf("linear-gradient(%s, %s)", direction, strings.Join(stops, ", "))
}

// linearstep matches the GLSL helper in the shader skeleton, including the
// step fallback for coincident edges.
func linearstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	return math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
}

func mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
