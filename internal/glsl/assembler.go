// Package glsl assembles user shader snippets into complete fragment
// programs.
//
// A snippet is the body of main() plus any helper functions the user wants.
// The Assembler splits helpers out of the snippet, adds the colormap and
// feedback helpers the snippet refers to, and splices everything into a
// fixed skeleton containing one {{functions}} line and one {{content}} line.
package glsl

import (
	_ "embed"
	"strings"

	"github.com/nordprojects/bitfolio/internal/colormap"
)

// DefaultSkeleton is the program every snippet is assembled into.
//
//go:embed skeleton.glsl
var DefaultSkeleton string

const (
	functionsTag = "{{functions}}"
	contentTag   = "{{content}}"

	// LastFrameToken marks a snippet as reading the previous frame.
	LastFrameToken = "lastFrame"

	// LastFrameSampler is the sampler uniform the feedback helper reads.
	LastFrameSampler = "lastFrameTexture"
)

const lastFrameSource = `uniform sampler2D lastFrameTexture;
vec3 lastFrame(vec2 position) {
    // xy space back to [-1, 1] on both axes, then to texture coordinates
    position /= resolution / min(resolution.x, resolution.y);
    position = 0.5 * position + 0.5;
    return texture(lastFrameTexture, position).rgb;
}
vec3 lastFrame(float x, float y) {
    return lastFrame(vec2(x, y));
}`

// Shader is one assembled fragment program.
type Shader struct {
	Source string
	// UserCodeLineOffset is the zero-based line of Source where the user's
	// body starts. A compiler's 1-based line L maps to user line
	// L - UserCodeLineOffset.
	UserCodeLineOffset int
	// RequiredExtensions is reserved for #extension pragmas and always
	// empty for now.
	RequiredExtensions []string
}

// Assembler builds fragment programs from snippets. It is immutable and
// safe for concurrent use.
type Assembler struct {
	lines     []string
	colormaps *colormap.Library
}

// NewAssembler checks that skeleton has exactly one functions line and one
// content line, and that they are different lines. lib may be nil, in which case no colormaps are available.
func NewAssembler(skeleton string, lib *colormap.Library) (*Assembler, error) {
	lines := strings.Split(strings.TrimSuffix(skeleton, "\n"), "\n")

	var functions, content int
	for _, l := range lines {
		hasFunctions := strings.Contains(l, functionsTag)
		hasContent := strings.Contains(l, contentTag)
		if hasFunctions && hasContent {
			return nil, &TemplateError{Reason: functionsTag + " and " + contentTag + " must be on separate lines"}
		}
		if hasFunctions {
			functions++
		}
		if hasContent {
			content++
		}
	}
	if functions != 1 {
		return nil, &TemplateError{Reason: "skeleton must contain exactly one " + functionsTag + " line"}
	}
	if content != 1 {
		return nil, &TemplateError{Reason: "skeleton must contain exactly one " + contentTag + " line"}
	}

	return &Assembler{lines: lines, colormaps: lib}, nil
}

// Preprocess assembles code into a complete fragment program.
func (a *Assembler) Preprocess(code string) (Shader, error) {
	funcs, body := SplitFunctions(code)
	block := a.functions(code, funcs)

	var out strings.Builder
	offset := -1
	line := 0

	for _, l := range a.lines {
		switch {
		case strings.Contains(l, functionsTag):
			out.WriteString(block)
			out.WriteByte('\n')
			line += strings.Count(block, "\n") + 1
		case strings.Contains(l, contentTag):
			offset = line
			out.WriteString(body)
			out.WriteByte('\n')
			line += strings.Count(body, "\n") + 1
		default:
			out.WriteString(l)
			out.WriteByte('\n')
			line++
		}
	}

	if offset < 0 {
		return Shader{}, &TemplateError{Reason: "content tag not found"}
	}

	return Shader{
		Source:             out.String(),
		UserCodeLineOffset: offset,
		RequiredExtensions: []string{},
	}, nil
}

// UsesLastFrame reports whether code reads the previous frame.
func (a *Assembler) UsesLastFrame(code string) bool {
	return strings.Contains(code, LastFrameToken)
}

// Colormaps returns the library the assembler draws colormaps from.
func (a *Assembler) Colormaps() *colormap.Library {
	return a.colormaps
}

// functions builds the text substituted for the functions line: colormaps
// in library order, the feedback helper, then the user's helpers.
func (a *Assembler) functions(code string, funcs []Function) string {
	var parts []string

	if a.colormaps != nil {
		for _, m := range a.colormaps.InUse(code) {
			parts = append(parts, m.Shader())
		}
	}
	if a.UsesLastFrame(code) {
		parts = append(parts, lastFrameSource)
	}
	for _, fn := range funcs {
		parts = append(parts, fn.Source)
	}

	return strings.Join(parts, "\n")
}
