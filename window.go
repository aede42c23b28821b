package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.design/x/clipboard"

	"github.com/nordprojects/bitfolio/internal/config"
	"github.com/nordprojects/bitfolio/internal/engine"
	"github.com/nordprojects/bitfolio/internal/folio"
	"github.com/nordprojects/bitfolio/internal/frame"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

const windowTitle = "bitfolio"

// runLiveMode opens the render window and plays the newest snippet in the
// folio folder until the window is closed.
func runLiveMode(settings config.Settings, asm *glsl.Assembler, log *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var window *glfw.Window
	var err error
	if settings.Window.Fullscreen {
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		window, err = glfw.CreateWindow(mode.Width, mode.Height, windowTitle, monitor, nil)
	} else {
		window, err = glfw.CreateWindow(settings.Window.Width, settings.Window.Height, windowTitle, nil, nil)
	}
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()

	if settings.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		return fmt.Errorf("init opengl: %w", err)
	}
	log.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	surface := newGLSurface(window, log.With("component", "surface"))
	defer surface.Close()

	overlay, err := newTextRenderer()
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	defer overlay.Close()

	// Loader and frame goroutines may still wake the loop during shutdown;
	// the waker is closed before glfw.Terminate runs.
	waker := frame.NewWaker(glfw.PostEmptyEvent)
	defer waker.Close()

	frames := frame.NewQueue(time.Now(), frame.WithWake(waker.Wake))

	opts := []engine.Option{
		engine.WithLogger(log.With("component", "engine")),
		engine.WithDisplayScale(settings.Render.Scale),
	}
	if w, h, ok := settings.FixedRenderSize(); ok {
		opts = append(opts, engine.WithRenderSize(engine.Size{Width: w, Height: h}))
	}
	eng, err := engine.New(surface, frames, asm, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	watcher, err := folio.NewWatcher(settings.Folio.Dir, folio.WithLogger(log.With("component", "folio")))
	if err != nil {
		return err
	}
	loader := folio.NewLoader(watcher, frames,
		folio.WithPinned(settings.Folio.Snippet),
		folio.WithReloadDelay(settings.Folio.ReloadDelay),
		folio.WithLoaderWake(waker.Wake),
		folio.WithLoaderLogger(log.With("component", "loader")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil {
			log.Error("folio watcher stopped", "err", err)
		}
	}()
	go func() {
		defer wg.Done()
		loader.Run(ctx)
	}()

	log.Info("watching folio", "dir", watcher.Dir())

	clipboardOK := clipboard.Init() == nil
	if !clipboardOK {
		log.Warn("clipboard unavailable, copy keys are disabled")
	}
	copyText := func(what, text string) {
		if !clipboardOK {
			return
		}
		clipboard.Write(clipboard.FmtText, []byte(text))
		log.Info("copied to clipboard", "what", what, "bytes", len(text))
	}

	var current folio.Snippet
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			if eng.Running() {
				eng.Stop()
			} else {
				eng.Start()
			}
		case glfw.KeyR:
			eng.Restart()
		case glfw.KeyC:
			copyText("shader", eng.Shader().Source)
		case glfw.KeyD:
			if d, ok := eng.Diagnostic(); ok {
				copyText("diagnostic", d.String())
			}
		case glfw.KeyE:
			if current.Path == "" {
				return
			}
			if err := openFile(current.Path); err != nil {
				log.Error("open snippet", "path", current.Path, "err", err)
			}
		}
	})

	eng.Start()

	for !window.ShouldClose() {
		// Snippets change between frames only.
		for drained := false; !drained; {
			select {
			case s := <-loader.Snippets():
				current = s
				window.SetTitle(windowTitle + " - " + folio.URLForFile(s.File))
				if err := eng.SetUserCode(s.Code); err != nil {
					return err
				}
				if d, ok := eng.Diagnostic(); ok {
					log.Info("snippet has errors", "file", s.File.Name, "diagnostic", d.String())
				} else {
					log.Info("snippet loaded", "file", s.File.Name)
				}
			default:
				drained = true
			}
		}

		frames.Tick(time.Now())
		surface.Present()

		if settings.Window.Overlay {
			if d, ok := eng.Diagnostic(); ok {
				fbWidth, fbHeight := window.GetFramebufferSize()
				overlay.Render(d.String(), 8, 8, fbWidth, fbHeight)
			}
		}

		window.SwapBuffers()

		// Paused with nothing to draw: sleep until input or a frame request.
		if frames.Pending() {
			glfw.PollEvents()
		} else {
			glfw.WaitEvents()
		}
	}

	return nil
}
