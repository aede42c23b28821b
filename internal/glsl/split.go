package glsl

import "strings"

// returnTypes are the return types a helper function may declare.
var returnTypes = map[string]bool{
	"void":  true,
	"bool":  true,
	"int":   true,
	"float": true,
	"vec2":  true,
	"vec3":  true,
	"vec4":  true,
	"ivec2": true,
	"ivec3": true,
	"ivec4": true,
	"mat2":  true,
	"mat3":  true,
	"mat4":  true,
}

// Function is a helper function definition found in user code.
type Function struct {
	Name   string
	Start  int // byte offset of the return type
	End    int // byte offset just past the closing brace
	Source string
}

// SplitFunctions finds every top-level helper function in code and returns
// them in source order together with the remaining body. Each extracted
// span is replaced in the body by the newlines it contained, so the lines
// left behind keep their original line numbers.
//
// Bodies may nest braces to any depth; braces inside comments are ignored.
// A definition whose body never closes is left in the body untouched.
func SplitFunctions(code string) ([]Function, string) {
	var funcs []Function

	for i := 0; i < len(code); {
		if n := commentEnd(code, i); n > i {
			i = n
			continue
		}
		if !isIdentStart(code[i]) || (i > 0 && isIdentPart(code[i-1])) {
			i++
			continue
		}

		word := readIdent(code, i)
		if returnTypes[word] {
			if fn, ok := parseFunction(code, i, len(word)); ok {
				funcs = append(funcs, fn)
				i = fn.End
				continue
			}
		}
		i += len(word)
	}

	if len(funcs) == 0 {
		return nil, code
	}

	var rest strings.Builder
	prev := 0
	for _, fn := range funcs {
		rest.WriteString(code[prev:fn.Start])
		rest.WriteString(strings.Repeat("\n", strings.Count(fn.Source, "\n")))
		prev = fn.End
	}
	rest.WriteString(code[prev:])

	return funcs, rest.String()
}

// parseFunction tries to read `type name(params) { body }` starting at
// start, where the type keyword is typeLen bytes long.
func parseFunction(code string, start, typeLen int) (Function, bool) {
	i := skipSpace(code, start+typeLen)
	if i == start+typeLen || i >= len(code) || !isIdentStart(code[i]) {
		return Function{}, false
	}
	name := readIdent(code, i)
	i = skipSpace(code, i+len(name))

	if i >= len(code) || code[i] != '(' {
		return Function{}, false
	}
	paren := strings.IndexAny(code[i+1:], "(){};")
	if paren < 0 || code[i+1+paren] != ')' {
		return Function{}, false
	}
	i = skipSpace(code, i+1+paren+1)

	if i >= len(code) || code[i] != '{' {
		return Function{}, false
	}
	end := matchBrace(code, i)
	if end < 0 {
		return Function{}, false
	}

	return Function{
		Name:   name,
		Start:  start,
		End:    end,
		Source: code[start:end],
	}, true
}

// matchBrace returns the offset just past the brace closing the one at
// open, or -1 when it is never closed.
func matchBrace(code string, open int) int {
	depth := 0
	for i := open; i < len(code); {
		if n := commentEnd(code, i); n > i {
			i = n
			continue
		}
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return -1
}

// commentEnd returns the offset just past a comment starting at i, or i if
// there is none. An unterminated block comment runs to the end of code.
func commentEnd(code string, i int) int {
	if i+1 >= len(code) || code[i] != '/' {
		return i
	}
	switch code[i+1] {
	case '/':
		if n := strings.IndexByte(code[i:], '\n'); n >= 0 {
			return i + n
		}
		return len(code)
	case '*':
		if n := strings.Index(code[i+2:], "*/"); n >= 0 {
			return i + 2 + n + 2
		}
		return len(code)
	}
	return i
}

func skipSpace(code string, i int) int {
	for i < len(code) {
		switch code[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}

func readIdent(code string, i int) string {
	j := i
	for j < len(code) && isIdentPart(code[j]) {
		j++
	}
	return code[i:j]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
