// bitfolio is a live shader surface.
//
// It watches a folio folder and plays the newest GLSL snippet in it. A
// snippet is the body of main() plus optional helper functions; colormap
// functions and the previous frame (lastFrame) are available on demand.
//
// Modes:
//   - default: render window with the live snippet
//   - -gallery: colormap gallery
//   - -print <file>: print the assembled shader for a snippet and exit
//
// Keys in the render window: Space play/pause, R restart, C copy the
// assembled shader, D copy the diagnostic, E open the snippet, Esc quit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/nordprojects/bitfolio/internal/cli"
	"github.com/nordprojects/bitfolio/internal/colormap"
	"github.com/nordprojects/bitfolio/internal/config"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

func init() {
	runtime.LockOSThread() // OpenGL and GLFW calls must stay on the main thread
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadColormaps returns the configured gradient document's colormaps, or
// the built-in ones.
func loadColormaps(settings config.Settings) (*colormap.Library, error) {
	if settings.Folio.Colormaps == "" {
		return colormap.Default()
	}
	return colormap.Load(settings.Folio.Colormaps)
}

func run(opts cli.Options) error {
	// Settings errors are reported before the configured level is known.
	bootstrap := newLogger(os.Stderr, slog.LevelInfo)
	settings, err := config.Load(opts.ConfigPath, bootstrap)
	if err != nil {
		return err
	}
	level, err := settings.LogLevel()
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, level)

	lib, err := loadColormaps(settings)
	if err != nil {
		var mce *colormap.MalformedColorError
		if errors.As(err, &mce) {
			log.Error("bad colormap document", "gradient", mce.Gradient, "color", mce.Color)
		}
		return err
	}
	asm, err := glsl.NewAssembler(glsl.DefaultSkeleton, lib)
	if err != nil {
		return err
	}

	switch opts.Mode() {
	case cli.ModePrint:
		return cli.PrintShader(opts.PrintPath, os.Stdin, asm, os.Stdout, log)
	case cli.ModeGallery:
		runGalleryMode(lib, log)
		return nil
	case cli.ModeLive:
		fallthrough
	default:
		return runLiveMode(settings, asm, log)
	}
}

func main() {
	opts, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "bitfolio:", err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "bitfolio:", err)
		os.Exit(1)
	}
}
