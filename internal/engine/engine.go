// Package engine turns snippets into GPU programs and renders them once per
// display frame.
//
// An Engine is owned by the thread holding the graphics context. It keeps
// the last program that built, so a snippet with a mistake in it leaves the
// previous picture running under a Diagnostic.
package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/nordprojects/bitfolio/internal/frame"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

// DefaultUserCode is built when an Engine is created: white noise.
const DefaultUserCode = `white = 0.3 + fract(sin(dot(xy, vec2(12.9898, 4.1414))) * 43758.5453);`

// Engine is the render state of one surface.
type Engine struct {
	dev    Device
	frames Scheduler
	asm    *glsl.Assembler
	log    *slog.Logger
	scale  float64

	userCode   string
	shader     glsl.Shader
	program    Program
	compiled   bool
	diagnostic *Diagnostic

	running    bool
	request    frame.ID
	shaderTime time.Duration
	lastFrame  time.Duration
	hasLast    bool
	renderSize *Size
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger build results are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRenderSize fixes the surface size instead of fitting the display.
func WithRenderSize(s Size) Option {
	return func(e *Engine) { e.renderSize = &s }
}

// WithDisplayScale sets the surface to display size ratio used when no
// render size is fixed. The default is 1.
func WithDisplayScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// New creates an Engine and builds DefaultUserCode. The engine is stopped;
// nothing is drawn until Start or Render.
func New(dev Device, frames Scheduler, asm *glsl.Assembler, opts ...Option) (*Engine, error) {
	e := &Engine{
		dev:    dev,
		frames: frames,
		asm:    asm,
		log:    slog.New(slog.DiscardHandler),
		scale:  1,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.userCode = DefaultUserCode
	if err := e.build(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetUserCode replaces the snippet. Build failures are not returned: they
// show up as Diagnostic. When the loop is stopped one frame is rendered
// right away so the surface reflects the new code.
//
// The returned error is the assembler's and means the skeleton is broken.
func (e *Engine) SetUserCode(code string) error {
	if code == e.userCode {
		return nil
	}
	e.userCode = code
	if err := e.build(); err != nil {
		return err
	}
	if !e.running {
		e.Render()
	}
	return nil
}

func (e *Engine) build() error {
	shader, err := e.asm.Preprocess(e.userCode)
	if err != nil {
		return err
	}
	e.shader = shader

	program, err := e.dev.BuildProgram(VertexSource, shader.Source)
	if err != nil {
		d := diagnose(err, shader.UserCodeLineOffset, lineCount(e.userCode))
		e.diagnostic = &d
		e.compiled = false
		e.log.Info("shader build failed", "diagnostic", d.String(), "kept_previous", e.program != 0)
		return nil
	}

	if e.program != 0 {
		e.dev.DeleteProgram(e.program)
	}
	e.program = program
	e.compiled = true
	e.diagnostic = nil
	e.log.Debug("shader built", "lines", lineCount(shader.Source), "user_offset", shader.UserCodeLineOffset)
	return nil
}

// Start runs the render loop, one frame per display refresh. Starting a
// running engine does nothing.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.running = true
	e.request = e.frames.RequestFrame(e.frame)
}

// Stop cancels the next frame. Shader time is kept, and the time spent
// stopped is not added to it.
func (e *Engine) Stop() {
	if e.request != 0 {
		e.frames.CancelFrame(e.request)
		e.request = 0
	}
	e.running = false
	e.hasLast = false
}

// Restart resets shader time to zero and starts the loop.
func (e *Engine) Restart() {
	e.shaderTime = 0
	e.Start()
}

// Render draws one frame now. It adds no time.
func (e *Engine) Render() {
	e.render(0, false)
}

func (e *Engine) frame(now time.Duration) {
	e.request = 0
	e.render(now, true)
}

func (e *Engine) render(now time.Duration, timed bool) {
	if timed {
		if e.running {
			e.request = e.frames.RequestFrame(e.frame)
		}
		if e.hasLast && now > e.lastFrame {
			e.shaderTime += now - e.lastFrame
		}
		e.lastFrame = now
		e.hasLast = true
	}

	if e.program == 0 {
		return
	}

	size := e.targetSize()
	if e.dev.SurfaceSize() != size {
		e.dev.ResizeSurface(size)
	}

	var last Texture
	if e.asm.UsesLastFrame(e.userCode) {
		tex, err := e.dev.CaptureSurface()
		if err != nil {
			e.log.Warn("last frame capture failed", "err", err)
		} else {
			last = tex
		}
	}

	e.dev.Draw(e.program, Uniforms{
		Time:       float32(e.shaderTime.Seconds()),
		Resolution: [2]float32{float32(size.Width), float32(size.Height)},
		LastFrame:  last,
	})

	if last != 0 {
		e.dev.DeleteTexture(last)
	}
}

func (e *Engine) targetSize() Size {
	if e.renderSize != nil {
		return *e.renderSize
	}
	d := e.dev.DisplaySize()
	return Size{
		Width:  max(1, int(math.Round(float64(d.Width)*e.scale))),
		Height: max(1, int(math.Round(float64(d.Height)*e.scale))),
	}
}

// SetRenderSize fixes the surface size.
func (e *Engine) SetRenderSize(s Size) {
	e.renderSize = &s
}

// ClearRenderSize goes back to fitting the display.
func (e *Engine) ClearRenderSize() {
	e.renderSize = nil
}

// Close stops the loop and releases the program.
func (e *Engine) Close() {
	e.Stop()
	if e.program != 0 {
		e.dev.DeleteProgram(e.program)
		e.program = 0
	}
	e.compiled = false
}

func (e *Engine) UserCode() string { return e.userCode }

// Shader is the most recently assembled program, whether or not it built.
func (e *Engine) Shader() glsl.Shader { return e.shader }

// Diagnostic reports why the most recent build failed. ok is false after a
// successful build.
func (e *Engine) Diagnostic() (d Diagnostic, ok bool) {
	if e.diagnostic == nil {
		return Diagnostic{}, false
	}
	return *e.diagnostic, true
}

// Compiled reports whether the most recent build succeeded.
func (e *Engine) Compiled() bool { return e.compiled }

func (e *Engine) Running() bool { return e.running }

// ShaderTime is the time shaders see, accumulated over timed frames.
func (e *Engine) ShaderTime() time.Duration { return e.shaderTime }
