package colormap

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

//go:embed colormaps.svg
var defaultDocument []byte

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Library is an immutable, ordered set of colormaps.
type Library struct {
	maps []Colormap
}

// NewLibrary validates maps and returns them as a library in the given
// order. Stops of each colormap are stably sorted by position.
func NewLibrary(maps ...Colormap) (*Library, error) {
	lib := &Library{maps: make([]Colormap, 0, len(maps))}
	seen := make(map[string]string, len(maps))

	for _, m := range maps {
		if !identifierRegex.MatchString(m.Name) {
			return nil, &ConfigError{Name: m.Name, Reason: "name is not a valid identifier"}
		}
		if len(m.Stops) == 0 {
			return nil, &ConfigError{Name: m.Name, Reason: "gradient has no stops"}
		}
		fn := m.FunctionName()
		if other, ok := seen[fn]; ok {
			return nil, &ConfigError{
				Name:   m.Name,
				Reason: fmt.Sprintf("function name %s collides with colormap %q", fn, other),
			}
		}
		seen[fn] = m.Name

		stops := make([]Stop, len(m.Stops))
		copy(stops, m.Stops)
		sort.SliceStable(stops, func(i, j int) bool {
			return stops[i].Position < stops[j].Position
		})
		lib.maps = append(lib.maps, Colormap{Name: m.Name, Stops: stops})
	}

	return lib, nil
}

// Default returns the built-in colormap library.
func Default() (*Library, error) {
	return ParseSVG(bytes.NewReader(defaultDocument))
}

// Colormaps returns the colormaps in library order.
func (l *Library) Colormaps() []Colormap {
	out := make([]Colormap, len(l.maps))
	copy(out, l.maps)
	return out
}

// Len returns the number of colormaps.
func (l *Library) Len() int {
	return len(l.maps)
}

// Lookup finds a colormap by its source name.
func (l *Library) Lookup(name string) (Colormap, bool) {
	for _, m := range l.maps {
		if m.Name == name {
			return m, true
		}
	}
	return Colormap{}, false
}

// InUse returns, in library order, the colormaps whose function name
// appears anywhere in code.
func (l *Library) InUse(code string) []Colormap {
	var used []Colormap
	for _, m := range l.maps {
		if strings.Contains(code, m.FunctionName()) {
			used = append(used, m)
		}
	}
	return used
}
