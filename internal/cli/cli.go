// Package cli holds the command line surface of bitfolio: flags, the mode
// they select and the print mode, which needs no window.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nordprojects/bitfolio/internal/config"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

// Mode is what the executable was asked to do.
type Mode int

const (
	ModeLive    Mode = iota // Render window
	ModeGallery             // Colormap gallery
	ModePrint               // Print an assembled shader
)

// Options are the parsed command line flags.
type Options struct {
	ConfigPath string
	Gallery    bool
	PrintPath  string
}

// ParseFlags parses args, without the program name. Usage and errors are
// written to output.
func ParseFlags(args []string, output io.Writer) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("bitfolio", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.ConfigPath, "config", config.DefaultPath(), "settings `file`")
	fs.BoolVar(&opts.Gallery, "gallery", false, "show the colormap gallery")
	fs.StringVar(&opts.PrintPath, "print", "", "print the assembled shader for snippet `file` (- for stdin) and exit")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// Mode picks the mode. Printing wins over the gallery.
func (o Options) Mode() Mode {
	switch {
	case o.PrintPath != "":
		return ModePrint
	case o.Gallery:
		return ModeGallery
	default:
		return ModeLive
	}
}

// PrintShader writes the program the snippet at path assembles into. A
// path of "-" reads the snippet from stdin.
func PrintShader(path string, stdin io.Reader, asm *glsl.Assembler, out io.Writer, log *slog.Logger) error {
	var code []byte
	var err error
	if path == "-" {
		code, err = io.ReadAll(stdin)
	} else {
		code, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read snippet: %w", err)
	}

	shader, err := asm.Preprocess(string(code))
	if err != nil {
		return err
	}
	log.Debug("assembled", "snippet", path, "user_offset", shader.UserCodeLineOffset,
		"last_frame", asm.UsesLastFrame(string(code)))
	_, err = io.WriteString(out, shader.Source)
	return err
}
