package term

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	// Oversized relative move; the terminal clamps it to the bottom-right cell.
	seqCursorToCorner = "\x1b[999C\x1b[999B"
	seqCursorReport   = "\x1b[6n"

	cursorReportCap = 32
)

var (
	errNoReport       = errors.New("no cursor position report")
	errBadReportStart = errors.New("cursor report missing escape prefix")
	errNotRaw         = errors.New("cursor position report needs raw mode")
)

// Size is the visible terminal viewport.
type Size struct {
	Rows int
	Cols int
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.Rows > 0 && s.Cols > 0 }

// Prober determines the screen geometry. Query is the direct window-size
// query; In and Out carry the cursor position fallback.
type Prober struct {
	Query func() (Size, error)
	In    io.Reader
	Out   io.Writer
}

// Probe asks Query first and falls back to moving the cursor to the
// bottom-right corner and reading back its position.
func (p Prober) Probe() (Size, error) {
	if size, ok := p.direct(); ok {
		return size, nil
	}
	return p.cursorPosition()
}

func (p Prober) direct() (Size, bool) {
	if p.Query == nil {
		return Size{}, false
	}
	size, err := p.Query()
	if err != nil || !size.Valid() {
		return Size{}, false
	}
	return size, true
}

func (p Prober) cursorPosition() (Size, error) {
	if p.In == nil || p.Out == nil {
		return Size{}, &GeometryError{Op: "cursor position", Err: errNoReport}
	}
	if _, err := io.WriteString(p.Out, seqCursorToCorner+seqCursorReport); err != nil {
		return Size{}, &GeometryError{Op: "cursor position request", Err: err}
	}
	report, err := ReadCursorReport(p.In)
	if err != nil {
		return Size{}, err
	}
	return ParseCursorReport(report)
}

// ReadCursorReport reads a cursor position report one byte at a time
// until 'R' arrives, the 32 byte buffer fills or the input has nothing
// more to give within the read timeout.
func ReadCursorReport(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, cursorReportCap)
	var b [1]byte
	for len(buf) < cursorReportCap {
		n, err := r.Read(b[:])
		if n == 1 {
			buf = append(buf, b[0])
			if b[0] == 'R' {
				break
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, unix.EAGAIN) {
			return nil, &GeometryError{Op: "cursor position read", Err: err}
		}
		break
	}
	if len(buf) == 0 {
		return nil, &GeometryError{Op: "cursor position read", Err: errNoReport}
	}
	return buf, nil
}

// ParseCursorReport parses "ESC [ row ; col R". The trailing 'R' is optional.
func ParseCursorReport(report []byte) (Size, error) {
	if len(report) < 2 || report[0] != '\x1b' || report[1] != '[' {
		return Size{}, &GeometryError{Op: "cursor position parse", Err: errBadReportStart}
	}
	body := bytes.TrimSuffix(report[2:], []byte("R"))
	rowStr, colStr, ok := bytes.Cut(body, []byte(";"))
	if !ok {
		return Size{}, &GeometryError{Op: "cursor position parse", Err: fmt.Errorf("malformed report %q", report)}
	}
	rows, err := strconv.Atoi(string(rowStr))
	if err != nil {
		return Size{}, &GeometryError{Op: "cursor position parse", Err: err}
	}
	cols, err := strconv.Atoi(string(colStr))
	if err != nil {
		return Size{}, &GeometryError{Op: "cursor position parse", Err: err}
	}
	size := Size{Rows: rows, Cols: cols}
	if !size.Valid() {
		return Size{}, &GeometryError{Op: "cursor position parse", Err: fmt.Errorf("invalid size %dx%d", rows, cols)}
	}
	return size, nil
}
