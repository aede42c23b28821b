package cli

import (
	"bytes"
	"flag"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordprojects/bitfolio/internal/config"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Options
		mode Mode
	}{
		{"defaults", nil, Options{ConfigPath: config.DefaultPath()}, ModeLive},
		{"config", []string{"-config", "my.toml"}, Options{ConfigPath: "my.toml"}, ModeLive},
		{"gallery", []string{"-gallery"}, Options{ConfigPath: config.DefaultPath(), Gallery: true}, ModeGallery},
		{"print wins", []string{"-gallery", "-print", "-"}, Options{ConfigPath: config.DefaultPath(), Gallery: true, PrintPath: "-"}, ModePrint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseFlags(tt.args, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts)
			assert.Equal(t, tt.mode, opts.Mode())
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	var usage bytes.Buffer
	_, err := ParseFlags([]string{"-h"}, &usage)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, usage.String(), "-gallery")

	_, err = ParseFlags([]string{"-nope"}, io.Discard)
	assert.Error(t, err)

	_, err = ParseFlags([]string{"extra"}, io.Discard)
	assert.ErrorContains(t, err, "unexpected arguments")
}

func newAssembler(t *testing.T) *glsl.Assembler {
	t.Helper()
	asm, err := glsl.NewAssembler("// head\n{{functions}}\n{{content}}\n", nil)
	require.NoError(t, err)
	return asm
}

func TestPrintShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snippet.glsl")
	require.NoError(t, os.WriteFile(path, []byte("white = 1.0;"), 0o644))

	var out bytes.Buffer
	require.NoError(t, PrintShader(path, nil, newAssembler(t), &out, slog.New(slog.DiscardHandler)))
	assert.Equal(t, "// head\n\nwhite = 1.0;\n", out.String())
}

func TestPrintShaderFromStdin(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("float twice(float v) {\n  return v * 2.0;\n}\nred = twice(0.25);")
	require.NoError(t, PrintShader("-", stdin, newAssembler(t), &out, slog.New(slog.DiscardHandler)))

	src := out.String()
	assert.True(t, strings.HasPrefix(src, "// head\nfloat twice(float v) {"), src)
	assert.Contains(t, src, "red = twice(0.25);")
}

func TestPrintShaderMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := PrintShader(filepath.Join(t.TempDir(), "gone.glsl"), nil, newAssembler(t), &out, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, out.String())
}
