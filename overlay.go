package main

import (
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/nordprojects/bitfolio/internal/textimg"
)

const textVertexShaderSource = `
#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aTexCoord;
out vec2 TexCoord;
uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(aPos, 0.0, 1.0);
    TexCoord = aTexCoord;
}`

// Glyph coverage is in the red channel. Uncovered pixels get a dim
// backdrop so the text stays readable over bright shaders.
const textFragmentShaderSource = `
#version 330 core
in vec2 TexCoord;
out vec4 FragColor;
uniform sampler2D textTexture;
uniform vec3 textColor;

void main() {
    float coverage = texture(textTexture, TexCoord).r;
    FragColor = vec4(mix(vec3(0.0), textColor, coverage), max(coverage, 0.65));
}`

// diagnosticColor is the overlay text color.
var diagnosticColor = [3]float32{1.0, 0.45, 0.4}

// TextRenderer draws lines of text at the top left of the window.
type TextRenderer struct {
	program    uint32
	vao        uint32
	vbo        uint32
	texture    uint32
	projection int32
	textColor  int32
}

func newTextRenderer() (*TextRenderer, error) {
	tr := &TextRenderer{}

	program, err := newProgram(textVertexShaderSource, textFragmentShaderSource)
	if err != nil {
		return nil, err
	}
	tr.program = program
	tr.projection = uniformLocation(program, "projection")
	tr.textColor = uniformLocation(program, "textColor")

	gl.GenVertexArrays(1, &tr.vao)
	gl.GenBuffers(1, &tr.vbo)

	gl.BindVertexArray(tr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.DYNAMIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &tr.texture)
	gl.BindTexture(gl.TEXTURE_2D, tr.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return tr, nil
}

// Render draws text with its top left corner at x, y in framebuffer
// pixels. The framebuffer is width by height.
func (tr *TextRenderer) Render(text string, x, y float32, width, height int) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 || width == 0 || height == 0 {
		return
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	img := textimg.Rasterize(lines)
	gl.BindTexture(gl.TEXTURE_2D, tr.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	w := float32(img.Bounds().Dx())
	h := float32(img.Bounds().Dy())

	// Orthographic, y pointing down from the top left corner.
	projection := []float32{
		2.0 / float32(width), 0, 0, 0,
		0, -2.0 / float32(height), 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}

	gl.UseProgram(tr.program)
	gl.UniformMatrix4fv(tr.projection, 1, false, &projection[0])
	gl.Uniform3f(tr.textColor, diagnosticColor[0], diagnosticColor[1], diagnosticColor[2])

	gl.BindVertexArray(tr.vao)

	// Image rows run top down, like the projection.
	vertices := []float32{
		x, y + h, 0.0, 1.0,
		x, y, 0.0, 0.0,
		x + w, y, 1.0, 0.0,
		x, y + h, 0.0, 1.0,
		x + w, y, 1.0, 0.0,
		x + w, y + h, 1.0, 1.0,
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tr.texture)

	gl.DrawArrays(gl.TRIANGLES, 0, 6)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Disable(gl.BLEND)
}

func (tr *TextRenderer) Close() {
	gl.DeleteTextures(1, &tr.texture)
	gl.DeleteBuffers(1, &tr.vbo)
	gl.DeleteVertexArrays(1, &tr.vao)
	gl.DeleteProgram(tr.program)
}
