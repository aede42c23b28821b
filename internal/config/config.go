// Package config loads bitfolio's settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appDir = "bitfolio"

type Settings struct {
	Folio  FolioSettings  `toml:"folio"`
	Window WindowSettings `toml:"window"`
	Render RenderSettings `toml:"render"`
	Log    LogSettings    `toml:"log"`
}

type FolioSettings struct {
	// Dir is the watched folder. Snippets and images live here.
	Dir string `toml:"dir"`
	// Snippet pins the snippet file name; empty follows the newest
	// .glsl or .frag file.
	Snippet string `toml:"snippet"`
	// Colormaps is an extra gradient document (.svg or .yaml) replacing
	// the built-in colormaps.
	Colormaps   string        `toml:"colormaps"`
	ReloadDelay time.Duration `toml:"reload_delay"`
}

type WindowSettings struct {
	Width      int  `toml:"width"`
	Height     int  `toml:"height"`
	Fullscreen bool `toml:"fullscreen"`
	VSync      bool `toml:"vsync"`
	// Overlay draws the build diagnostic over the picture.
	Overlay bool `toml:"overlay"`
}

// RenderSettings size the surface. A zero Width or Height fits the window
// scaled by Scale.
type RenderSettings struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

// Defaults returns the settings used for anything the file leaves out.
func Defaults() Settings {
	return Settings{
		Folio: FolioSettings{
			Dir:         filepath.Join(userDir(), "folio"),
			ReloadDelay: 100 * time.Millisecond,
		},
		Window: WindowSettings{
			Width:   960,
			Height:  540,
			VSync:   true,
			Overlay: true,
		},
		Render: RenderSettings{
			Scale: 1,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// DefaultPath is where the settings file is looked for when none is given.
func DefaultPath() string {
	return filepath.Join(userDir(), "settings.toml")
}

func userDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return appDir
	}
	return filepath.Join(dir, appDir)
}

// Load reads path over Defaults. A missing file is not an error. Keys the
// settings do not know are logged and ignored.
func Load(path string, log *slog.Logger) (Settings, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := Defaults()
	meta, err := toml.DecodeFile(path, &s)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("no settings file, using defaults", "path", path)
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", path, err)
	}

	for _, key := range meta.Undecoded() {
		log.Warn("unknown setting", "path", path, "key", key.String())
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Validate checks values the file may have got wrong.
func (s Settings) Validate() error {
	var errs []error
	if s.Folio.Dir == "" {
		errs = append(errs, errors.New("folio.dir is empty"))
	}
	if s.Folio.ReloadDelay < 0 {
		errs = append(errs, errors.New("folio.reload_delay is negative"))
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d is not positive", s.Window.Width, s.Window.Height))
	}
	if s.Render.Width < 0 || s.Render.Height < 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d is negative", s.Render.Width, s.Render.Height))
	}
	if s.Render.Scale <= 0 {
		errs = append(errs, fmt.Errorf("render.scale %g is not positive", s.Render.Scale))
	}
	if _, err := s.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (s Settings) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// FixedRenderSize reports the configured render size, if both dimensions
// are set.
func (s Settings) FixedRenderSize() (width, height int, ok bool) {
	if s.Render.Width > 0 && s.Render.Height > 0 {
		return s.Render.Width, s.Render.Height, true
	}
	return 0, 0, false
}
