package colormap

import "fmt"

// MalformedColorError reports a stop color that could not be parsed.
// It fails the whole gradient document.
type MalformedColorError struct {
	Gradient string
	Color    string
	Err      error
}

func (e *MalformedColorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("colormap %q: malformed stop color %q: %v", e.Gradient, e.Color, e.Err)
	}
	return fmt.Sprintf("colormap %q: malformed stop color %q", e.Gradient, e.Color)
}

func (e *MalformedColorError) Unwrap() error { return e.Err }

// ConfigError reports an invalid gradient definition other than a bad color.
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("colormap %q: %s", e.Name, e.Reason)
}
