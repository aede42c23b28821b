package colormap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"gopkg.in/yaml.v3"
)

// Load reads a gradient document from disk. Files ending in .yaml or .yml
// are read as YAML, everything else as SVG.
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("colormap: opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return ParseSVG(f)
	}
}

// ParseSVG reads every <linearGradient> element of an SVG document. Stops
// take their color from the stop-color attribute or the stop-color
// property of a style attribute, and default to black.
func ParseSVG(r io.Reader) (*Library, error) {
	dec := xml.NewDecoder(r)
	var maps []Colormap
	current := -1

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("colormap: reading svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "linearGradient":
				maps = append(maps, Colormap{Name: attrValue(t.Attr, "id")})
				current = len(maps) - 1
			case "stop":
				if current < 0 {
					continue
				}
				name := maps[current].Name
				stop, err := parseStop(name, stopOffset(t.Attr), stopColor(t.Attr))
				if err != nil {
					return nil, err
				}
				maps[current].Stops = append(maps[current].Stops, stop)
			}
		case xml.EndElement:
			if t.Name.Local == "linearGradient" {
				current = -1
			}
		}
	}

	return NewLibrary(maps...)
}

type yamlGradient struct {
	Name  string     `yaml:"name"`
	Stops []yamlStop `yaml:"stops"`
}

type yamlStop struct {
	Offset any    `yaml:"offset"`
	Color  string `yaml:"color"`
}

// ParseYAML reads gradients from a YAML sequence:
//
//	- name: fire
//	  stops:
//	    - {offset: 0, color: black}
//	    - {offset: 50%, color: "#ff4000"}
func ParseYAML(r io.Reader) (*Library, error) {
	var doc []yamlGradient
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("colormap: reading yaml: %w", err)
	}

	maps := make([]Colormap, 0, len(doc))
	for _, g := range doc {
		m := Colormap{Name: g.Name}
		for _, s := range g.Stops {
			stop, err := parseStop(g.Name, fmt.Sprint(s.Offset), s.Color)
			if err != nil {
				return nil, err
			}
			m.Stops = append(m.Stops, stop)
		}
		maps = append(maps, m)
	}

	return NewLibrary(maps...)
}

func parseStop(gradient, offset, colorStr string) (Stop, error) {
	pos, err := parseOffset(offset)
	if err != nil {
		return Stop{}, &ConfigError{Name: gradient, Reason: fmt.Sprintf("bad stop offset %q: %v", offset, err)}
	}

	colorStr = strings.TrimSpace(colorStr)
	if colorStr == "" {
		colorStr = "#000"
	}
	rgb, err := parseColor(colorStr)
	if err != nil {
		return Stop{}, &MalformedColorError{Gradient: gradient, Color: colorStr, Err: err}
	}

	return Stop{
		Red:      rgb[0],
		Green:    rgb[1],
		Blue:     rgb[2],
		Position: pos,
	}, nil
}

// parseColor returns the red, green and blue components of a CSS color in
// [0, 255]. Functional rgb() and rgba() keep fractional components; hex and
// named colors go through oksvg.
func parseColor(s string) ([3]float64, error) {
	lower := strings.ToLower(s)
	for _, fn := range []string{"rgba(", "rgb("} {
		if strings.HasPrefix(lower, fn) {
			return parseRGBFunc(s[len(fn):])
		}
	}

	c, err := oksvg.ParseSVGColor(s)
	if err != nil {
		return [3]float64{}, err
	}
	if c == nil {
		return [3]float64{}, errNoColor
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [3]float64{float64(n.R), float64(n.G), float64(n.B)}, nil
}

var errNoColor = errors.New("not a color")

// parseRGBFunc parses the arguments of rgb() or rgba() after the opening
// parenthesis. Components are separated by commas or spaces; an alpha
// after the third component is ignored.
func parseRGBFunc(args string) ([3]float64, error) {
	var rgb [3]float64
	body, ok := strings.CutSuffix(strings.TrimSpace(args), ")")
	if !ok {
		return rgb, fmt.Errorf("missing closing parenthesis")
	}
	body, _, _ = strings.Cut(body, "/")
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 && len(fields) != 4 {
		return rgb, fmt.Errorf("want 3 or 4 components, got %d", len(fields))
	}

	for i := range rgb {
		f := fields[i]
		pct := strings.HasSuffix(f, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return rgb, err
		}
		if pct {
			v = v * 255 / 100
		}
		rgb[i] = min(max(v, 0), 255)
	}
	return rgb, nil
}

// parseOffset accepts a number or a percentage and clamps it to [0, 1].
func parseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "<nil>" {
		return 0, nil
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 100
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	v /= scale
	switch {
	case v < 0:
		return 0, nil
	case v > 1:
		return 1, nil
	}
	return v, nil
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func stopOffset(attrs []xml.Attr) string {
	return attrValue(attrs, "offset")
}

func stopColor(attrs []xml.Attr) string {
	if v := attrValue(attrs, "stop-color"); v != "" {
		return v
	}
	for _, decl := range strings.Split(attrValue(attrs, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == "stop-color" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
