package colormap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="sunset">
      <stop offset="0%" stop-color="#102030"/>
      <stop offset="50%" stop-color="orange"/>
      <stop offset="1" style="stop-opacity: 1; stop-color: rgb(255, 0, 128)"/>
    </linearGradient>
    <linearGradient id="dark">
      <stop offset="0.3"/>
    </linearGradient>
  </defs>
  <stop offset="0" stop-color="white"/>
</svg>`

func TestParseSVG(t *testing.T) {
	lib, err := ParseSVG(strings.NewReader(testSVG))
	require.NoError(t, err)
	require.Equal(t, 2, lib.Len())

	maps := lib.Colormaps()
	sunset := maps[0]
	assert.Equal(t, "sunset", sunset.Name)
	assert.Equal(t, []Stop{
		{Red: 0x10, Green: 0x20, Blue: 0x30, Position: 0},
		{Red: 255, Green: 165, Blue: 0, Position: 0.5},
		{Red: 255, Green: 0, Blue: 128, Position: 1},
	}, sunset.Stops)

	dark := maps[1]
	assert.Equal(t, []Stop{{Position: 0.3}}, dark.Stops)
}

func TestParseSVGMalformedColor(t *testing.T) {
	doc := `<svg><linearGradient id="good"><stop offset="0" stop-color="#fff"/></linearGradient>
<linearGradient id="bad"><stop offset="0" stop-color="notacolor"/></linearGradient></svg>`

	lib, err := ParseSVG(strings.NewReader(doc))
	assert.Nil(t, lib)

	var mce *MalformedColorError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "bad", mce.Gradient)
	assert.Equal(t, "notacolor", mce.Color)
}

func TestParseSVGNoneIsMalformed(t *testing.T) {
	doc := `<svg><linearGradient id="g"><stop offset="0" stop-color="none"/></linearGradient></svg>`
	_, err := ParseSVG(strings.NewReader(doc))
	var mce *MalformedColorError
	assert.True(t, errors.As(err, &mce))
}

func TestParseSVGBadOffset(t *testing.T) {
	doc := `<svg><linearGradient id="g"><stop offset="half" stop-color="red"/></linearGradient></svg>`
	_, err := ParseSVG(strings.NewReader(doc))
	var cfg *ConfigError
	assert.True(t, errors.As(err, &cfg))
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"0.25", 0.25},
		{"25%", 0.25},
		{" 100% ", 1},
		{"1.5", 1},
		{"-3", 0},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParseColorKeepsFractions(t *testing.T) {
	tests := []struct {
		in   string
		want [3]float64
	}{
		{"rgb(12.5, 100, 200)", [3]float64{12.5, 100, 200}},
		{"rgb(10%, 50%, 100%)", [3]float64{25.5, 127.5, 255}},
		{"RGBA(1.25 2.5 3.75 / 0.5)", [3]float64{1.25, 2.5, 3.75}},
		{"rgba(0, 0, 0, 0.2)", [3]float64{0, 0, 0}},
		{"rgb(300, -4, 0)", [3]float64{255, 0, 0}},
		{"#ff8000", [3]float64{255, 128, 0}},
		{"teal", [3]float64{0, 128, 128}},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDeltaSlice(t, tt.want[:], got[:], 1e-9, tt.in)
	}

	for _, bad := range []string{"rgb(1, 2)", "rgb(1, 2, x)", "rgb(1, 2, 3"} {
		_, err := parseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSVGFractionalRGB(t *testing.T) {
	doc := `<svg><linearGradient id="fine"><stop offset="0" stop-color="rgb(12.5, 100, 200)"/></linearGradient></svg>`
	lib, err := ParseSVG(strings.NewReader(doc))
	require.NoError(t, err)

	m, ok := lib.Lookup("fine")
	require.True(t, ok)
	assert.Equal(t, 12.5, m.Stops[0].Red)
	assert.Contains(t, m.Shader(), "vec3(0.049, 0.392, 0.784)")
}

func TestParseYAML(t *testing.T) {
	doc := `
- name: fire
  stops:
    - {offset: 0, color: black}
    - {offset: 50%, color: "#ff4000"}
    - {offset: 1, color: "rgb(255, 255, 0)"}
- name: mono
  stops:
    - {offset: 0.5, color: gray}
`
	lib, err := ParseYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 2, lib.Len())

	fire, ok := lib.Lookup("fire")
	require.True(t, ok)
	assert.Equal(t, []Stop{
		{Position: 0},
		{Red: 255, Green: 64, Position: 0.5},
		{Red: 255, Green: 255, Position: 1},
	}, fire.Stops)
	assert.Equal(t, "ColormapMono", lib.Colormaps()[1].FunctionName())
}

func TestParseYAMLMalformedColor(t *testing.T) {
	doc := "- name: x\n  stops:\n    - {offset: 0, color: \"#12\"}\n"
	_, err := ParseYAML(strings.NewReader(doc))
	var mce *MalformedColorError
	assert.True(t, errors.As(err, &mce))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	svgPath := filepath.Join(dir, "maps.svg")
	yamlPath := filepath.Join(dir, "maps.yaml")
	require.NoError(t, os.WriteFile(svgPath, []byte(testSVG), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("- name: one\n  stops:\n    - {offset: 0, color: red}\n"), 0o644))

	lib, err := Load(svgPath)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	lib, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())

	_, err = Load(filepath.Join(dir, "missing.svg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	for _, name := range []string{"viridis", "magma", "inferno", "plasma", "greys", "rainbow", "fire", "ice"} {
		m, ok := lib.Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, m.Stops)
		assert.Zero(t, m.Stops[0].Position, name)
		assert.Equal(t, 1.0, m.Stops[len(m.Stops)-1].Position, name)
	}
}
