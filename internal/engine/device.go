package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/nordprojects/bitfolio/internal/frame"
)

// VertexSource is the fixed vertex stage: one triangle covering the whole
// surface, positions in attribute 0.
const VertexSource = `#version 330 core

layout(location = 0) in vec2 position;

void main() {
    gl_Position = vec4(position, 0.0, 1.0);
}
`

// Program is a linked GPU program. The zero Program means none.
type Program uint32

// Texture is a GPU texture. The zero Texture means none.
type Texture uint32

// Size is a surface size in pixels.
type Size struct {
	Width, Height int
}

// Uniforms are the per-frame shader inputs.
type Uniforms struct {
	// Time is the accumulated shader time in seconds.
	Time       float32
	Resolution [2]float32
	// LastFrame holds the previous frame's contents when the program reads
	// it, and is zero otherwise.
	LastFrame Texture
}

// Device is the GPU surface an Engine renders to. All calls are made from
// the thread owning the graphics context.
type Device interface {
	// BuildProgram compiles and links both stages. Compiler and linker
	// failures are reported as *BuildError.
	BuildProgram(vertex, fragment string) (Program, error)
	DeleteProgram(Program)

	// SurfaceSize is the size of the backing surface draws land in.
	SurfaceSize() Size
	ResizeSurface(Size)
	// DisplaySize is the size the surface is shown at.
	DisplaySize() Size

	// CaptureSurface copies the current surface contents into a new
	// texture owned by the caller.
	CaptureSurface() (Texture, error)
	DeleteTexture(Texture)

	// Draw runs one full-surface pass of the program.
	Draw(Program, Uniforms)
}

// Scheduler hands out display frames.
type Scheduler interface {
	RequestFrame(fn func(now time.Duration)) frame.ID
	CancelFrame(frame.ID)
}

// BuildError carries the driver's log for a failed compile or link.
type BuildError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Log   string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("engine: %s stage failed: %s", e.Stage, strings.TrimSpace(e.Log))
}
