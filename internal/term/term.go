package term

import (
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// Term controls the mode of the terminal attached to in and probes its
// size. Output escape sequences go to out.
type Term struct {
	in  *os.File
	out io.Writer

	mu       sync.Mutex
	orig     *Settings
	raw      bool
	query    func() (Size, error)
	getAttrs func(fd int) (*unix.Termios, error)
	setAttrs func(fd int, t *unix.Termios) error
}

// New returns a Term reading from in and writing to out. Nothing is
// changed on the device until EnterRawMode.
func New(in *os.File, out io.Writer) *Term {
	t := &Term{
		in:  in,
		out: out,
		getAttrs: func(fd int) (*unix.Termios, error) {
			return unix.IoctlGetTermios(fd, ioctlGetTermios)
		},
		setAttrs: func(fd int, tio *unix.Termios) error {
			return unix.IoctlSetTermios(fd, ioctlSetTermios, tio)
		},
	}
	t.query = func() (Size, error) {
		cols, rows, err := xterm.GetSize(t.fd())
		return Size{Rows: rows, Cols: cols}, err
	}
	return t
}

func (t *Term) fd() int { return int(t.in.Fd()) }

// EnterRawMode saves the current configuration and switches the terminal
// to raw mode. Only the first saved configuration is kept, so a second
// call cannot overwrite the baseline with raw settings.
func (t *Term) EnterRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.orig == nil {
		tio, err := t.getAttrs(t.fd())
		if err != nil {
			return &TerminalIOError{Op: "tcgetattr", Err: err}
		}
		t.orig = &Settings{tio: *tio}
	}

	raw := RawSettings(*t.orig)
	if err := t.setAttrs(t.fd(), &raw.tio); err != nil {
		return &TerminalIOError{Op: "tcsetattr", Err: err}
	}
	t.raw = true
	return nil
}

// ExitRawMode reapplies the saved configuration. It is a no-op when raw
// mode is not active and may be called from any goroutine.
func (t *Term) ExitRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.raw {
		return nil
	}
	// Cleared first so a failed restore is never retried in a loop.
	t.raw = false
	orig := t.orig.tio
	if err := t.setAttrs(t.fd(), &orig); err != nil {
		return &TerminalIOError{Op: "tcsetattr", Err: err}
	}
	return nil
}

// Raw reports whether raw mode is active.
func (t *Term) Raw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// Baseline returns the configuration captured by the first EnterRawMode.
func (t *Term) Baseline() (Settings, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.orig == nil {
		return Settings{}, false
	}
	return *t.orig, true
}

// Size returns the screen geometry, falling back to a cursor position
// report when the window-size query is unusable. The fallback needs raw
// mode: in canonical mode the reply would sit in the line buffer until a
// newline arrives, so Size fails with a GeometryError instead.
func (t *Term) Size() (Size, error) {
	p := Prober{Query: t.query}
	if size, ok := p.direct(); ok {
		return size, nil
	}
	if !t.Raw() {
		return Size{}, &GeometryError{Op: "cursor position", Err: errNotRaw}
	}
	p.In, p.Out = t.in, t.out
	return p.cursorPosition()
}
