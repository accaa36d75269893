package term

import "fmt"

// TerminalIOError reports a failed query or update of the terminal
// configuration, or a failed read from the input stream.
type TerminalIOError struct {
	Op  string
	Err error
}

func (e *TerminalIOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TerminalIOError) Unwrap() error { return e.Err }

// GeometryError reports that neither the window-size query nor the
// cursor-position fallback produced a usable screen size.
type GeometryError struct {
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }
