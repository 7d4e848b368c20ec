package layerfile

import "fmt"

// DecodeError reports a malformed manifest or layer file.
type DecodeError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := e.Path
	if e.Line > 0 {
		msg = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
