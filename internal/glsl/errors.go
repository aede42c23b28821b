package glsl

// TemplateError means the skeleton is unusable. It is a packaging or
// configuration fault, never caused by user code.
type TemplateError struct {
	Reason string
}

func (e *TemplateError) Error() string {
	return "glsl: bad shader skeleton: " + e.Reason
}
