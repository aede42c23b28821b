package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Diagnostic is a build failure as the user should see it.
type Diagnostic struct {
	Message string
	// Line is 1-based in the user's snippet and only meaningful when
	// HasLine is set.
	Line    int
	HasLine bool
}

func (d Diagnostic) String() string {
	if !d.HasLine {
		return d.Message
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Driver log formats, each capturing line and message.
var diagnosticPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ERROR: \d+:(\d+): (.*)`),         // ANGLE, GLSL ES
	regexp.MustCompile(`\d+:(\d+)\(\d+\): error: (.*)`),  // Mesa
	regexp.MustCompile(`\d+\((\d+)\) : error \w+: (.*)`), // NVIDIA
}

// Some compilers blame the closing brace of main() for an unterminated
// snippet. That brace belongs to the skeleton, so the message is replaced.
const (
	unmatchedBraceMessage = "'}' : syntax error"
	syntaxErrorMessage    = "Syntax error"
)

// diagnose turns a build error into a Diagnostic in snippet coordinates.
// offset is the zero-based source line the snippet starts at and lines the
// snippet's line count.
func diagnose(err error, offset, lines int) Diagnostic {
	var be *BuildError
	if !errors.As(err, &be) {
		return Diagnostic{Message: err.Error()}
	}

	for _, re := range diagnosticPatterns {
		m := re.FindStringSubmatch(be.Log)
		if m == nil {
			continue
		}
		raw, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			continue
		}

		message := strings.TrimSpace(m[2])
		line := raw - offset
		if line < 0 {
			line = 0
		}
		if line >= lines {
			line = lines
			if message == unmatchedBraceMessage {
				message = syntaxErrorMessage
			}
		}
		return Diagnostic{Message: message, Line: line, HasLine: true}
	}

	return Diagnostic{Message: strings.TrimSpace(be.Log)}
}

func lineCount(code string) int {
	return strings.Count(code, "\n") + 1
}
