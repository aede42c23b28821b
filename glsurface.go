package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/nordprojects/bitfolio/internal/engine"
	"github.com/nordprojects/bitfolio/internal/glsl"
)

// glSurface is the engine's device: snippets render into an offscreen
// framebuffer, which Present scales onto the window.
type glSurface struct {
	window *glfw.Window
	log    *slog.Logger

	// full-screen triangle
	vao uint32
	vbo uint32

	fbo   uint32
	color uint32
	size  engine.Size

	uniforms map[engine.Program]uniformLocations
}

type uniformLocations struct {
	time       int32
	resolution int32
	lastFrame  int32
}

func newGLSurface(window *glfw.Window, log *slog.Logger) *glSurface {
	s := &glSurface{
		window:   window,
		log:      log,
		uniforms: make(map[engine.Program]uniformLocations),
	}

	// One triangle twice the size of clip space covers it exactly, so there
	// is no diagonal seam and no index buffer.
	vertices := []float32{
		-1, -1,
		3, -1,
		-1, 3,
	}

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	// position (location 0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.GenFramebuffers(1, &s.fbo)
	return s
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		stage := "vertex"
		if shaderType == gl.FRAGMENT_SHADER {
			stage = "fragment"
		}
		log := shaderInfoLog(shader)
		gl.DeleteShader(shader)
		return 0, &engine.BuildError{Stage: stage, Log: log}
	}
	return shader, nil
}

func shaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 1 {
		return "no info log"
	}
	logBytes := make([]byte, logLength)
	gl.GetShaderInfoLog(shader, logLength, nil, &logBytes[0])
	return strings.TrimRight(string(logBytes), "\x00")
}

func programInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 1 {
		return "no info log"
	}
	logBytes := make([]byte, logLength)
	gl.GetProgramInfoLog(program, logLength, nil, &logBytes[0])
	return strings.TrimRight(string(logBytes), "\x00")
}

func newProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programInfoLog(program)
		gl.DeleteProgram(program)
		return 0, &engine.BuildError{Stage: "link", Log: log}
	}
	return program, nil
}

func uniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (s *glSurface) BuildProgram(vertex, fragment string) (engine.Program, error) {
	id, err := newProgram(vertex, fragment)
	if err != nil {
		return 0, err
	}
	p := engine.Program(id)
	s.uniforms[p] = uniformLocations{
		time:       uniformLocation(id, "time"),
		resolution: uniformLocation(id, "resolution"),
		lastFrame:  uniformLocation(id, glsl.LastFrameSampler),
	}
	return p, nil
}

func (s *glSurface) DeleteProgram(p engine.Program) {
	delete(s.uniforms, p)
	gl.DeleteProgram(uint32(p))
}

func (s *glSurface) SurfaceSize() engine.Size { return s.size }

func (s *glSurface) DisplaySize() engine.Size {
	w, h := s.window.GetFramebufferSize()
	return engine.Size{Width: w, Height: h}
}

// ResizeSurface reallocates the offscreen color buffer. Its contents are
// cleared to black.
func (s *glSurface) ResizeSurface(size engine.Size) {
	if s.color != 0 {
		gl.DeleteTextures(1, &s.color)
		s.color = 0
	}

	gl.GenTextures(1, &s.color)
	gl.BindTexture(gl.TEXTURE_2D, s.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.Width), int32(size.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	setTextureParams()
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.color, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		s.log.Error("surface framebuffer incomplete", "status", fmt.Sprintf("0x%x", status), "width", size.Width, "height", size.Height)
	}
	gl.Viewport(0, 0, int32(size.Width), int32(size.Height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	s.size = size
	s.log.Debug("surface resized", "width", size.Width, "height", size.Height)
}

func setTextureParams() {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
}

var errNoSurface = errors.New("surface has not been sized yet")

// CaptureSurface copies the offscreen buffer into a new RGB texture.
func (s *glSurface) CaptureSurface() (engine.Texture, error) {
	if s.color == 0 {
		return 0, errNoSurface
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.fbo)
	gl.CopyTexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, 0, 0, int32(s.size.Width), int32(s.size.Height), 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	setTextureParams()
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return engine.Texture(tex), nil
}

func (s *glSurface) DeleteTexture(t engine.Texture) {
	tex := uint32(t)
	gl.DeleteTextures(1, &tex)
}

func (s *glSurface) Draw(p engine.Program, u engine.Uniforms) {
	loc, ok := s.uniforms[p]
	if !ok {
		s.log.Warn("draw with unknown program", "program", p)
		return
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.Viewport(0, 0, int32(s.size.Width), int32(s.size.Height))
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	gl.UseProgram(uint32(p))
	if loc.time >= 0 {
		gl.Uniform1f(loc.time, u.Time)
	}
	if loc.resolution >= 0 {
		gl.Uniform2f(loc.resolution, u.Resolution[0], u.Resolution[1])
	}
	if u.LastFrame != 0 && loc.lastFrame >= 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, uint32(u.LastFrame))
		gl.Uniform1i(loc.lastFrame, 0)
	}

	gl.BindVertexArray(s.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Present letterboxes the offscreen buffer onto the window's framebuffer.
func (s *glSurface) Present() {
	fbWidth, fbHeight := s.window.GetFramebufferSize()

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if s.color == 0 || s.size.Width == 0 || s.size.Height == 0 {
		return
	}

	x0, y0, x1, y1 := engine.Letterbox(s.size, engine.Size{Width: fbWidth, Height: fbHeight})
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(
		0, 0, int32(s.size.Width), int32(s.size.Height),
		int32(x0), int32(y0), int32(x1), int32(y1),
		gl.COLOR_BUFFER_BIT, gl.LINEAR,
	)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (s *glSurface) Close() {
	for p := range s.uniforms {
		gl.DeleteProgram(uint32(p))
	}
	clear(s.uniforms)
	if s.color != 0 {
		gl.DeleteTextures(1, &s.color)
	}
	gl.DeleteFramebuffers(1, &s.fbo)
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteVertexArrays(1, &s.vao)
}
