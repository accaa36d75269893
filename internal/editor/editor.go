package editor

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"golang.org/x/sys/unix"

	"github.com/islml/tilde/internal/term"
)

const (
	// A read that waited out the raw-mode timeout takes at least this long.
	minTimeoutWait = 10 * time.Millisecond
	// Empty reads returning faster than minTimeoutWait, back to back,
	// before the input is treated as gone.
	maxFastEmptyReads = 100
)

var errInputClosed = errors.New("input closed")

// Terminal is the device the editor drives.
type Terminal interface {
	EnterRawMode() error
	ExitRawMode() error
	Size() (term.Size, error)
}

// State is the lifecycle stage of an Editor.
type State int

const (
	Uninitialized State = iota
	RawModeActive
	Running
	Terminating
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case RawModeActive:
		return "raw-mode-active"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Editor struct {
	term Terminal
	in   io.Reader
	out  io.Writer
	log  *log.Logger

	size     term.Size
	state    State
	exitCode int
}

// New returns an editor bound to t that reads keys from in and draws to
// out. Diagnostics go to logger, or the standard logger when nil.
func New(t Terminal, in io.Reader, out io.Writer, logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.Default()
	}
	return &Editor{
		term: t,
		in:   in,
		out:  out,
		log:  logger,
	}
}

func (e *Editor) State() State { return e.state }

func (e *Editor) Size() term.Size { return e.size }

// Init enters raw mode and measures the screen.
func (e *Editor) Init() error {
	if e.state != Uninitialized {
		return fmt.Errorf("init: editor is %s", e.state)
	}
	if err := e.term.EnterRawMode(); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	e.state = RawModeActive

	size, err := e.term.Size()
	if err != nil {
		return fmt.Errorf("get window size: %w", err)
	}
	if !size.Valid() {
		return &term.GeometryError{Op: "get window size", Err: fmt.Errorf("invalid size %dx%d", size.Rows, size.Cols)}
	}
	e.size = size
	e.state = Running
	return nil
}

// RefreshScreen redraws the whole screen.
func (e *Editor) RefreshScreen() error {
	if !e.size.Valid() {
		return &term.GeometryError{Op: "refresh screen", Err: errors.New("screen size unknown")}
	}
	if _, err := e.out.Write(frame(e.size)); err != nil {
		return &term.TerminalIOError{Op: "write", Err: err}
	}
	return nil
}

// ReadKey blocks until one byte of input arrives. Reads that time out
// are retried; an input that keeps returning nothing without waiting is
// reported as closed.
func (e *Editor) ReadKey() (Key, error) {
	var buf [1]byte
	fast := 0
	for {
		start := time.Now()
		n, err := e.in.Read(buf[:])
		if n == 1 {
			return Key(buf[0]), nil
		}
		if err != nil && !errors.Is(err, io.EOF) &&
			!errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			return 0, &term.TerminalIOError{Op: "read", Err: err}
		}
		if time.Since(start) >= minTimeoutWait {
			fast = 0
			continue
		}
		fast++
		if fast >= maxFastEmptyReads {
			return 0, &term.TerminalIOError{Op: "read", Err: errInputClosed}
		}
	}
}

// Dispatch runs the command bound to k. Keys without a command are
// ignored.
func (e *Editor) Dispatch(k Key) error {
	switch k {
	case KeyQuit:
		return e.quit()
	}
	return nil
}

// ProcessKeypress reads one key and dispatches it.
func (e *Editor) ProcessKeypress() error {
	k, err := e.ReadKey()
	if err != nil {
		return err
	}
	return e.Dispatch(k)
}

func (e *Editor) quit() error {
	e.state = Terminating
	e.exitCode = 0
	if err := e.clearScreen(); err != nil {
		return &term.TerminalIOError{Op: "write", Err: err}
	}
	return nil
}

func (e *Editor) clearScreen() error {
	return ClearScreen(e.out)
}

// Run drives the editor until quit or a fatal error and returns the
// process exit status. The terminal is restored on every path.
func (e *Editor) Run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			code = e.die(fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()

	if err := e.Init(); err != nil {
		return e.die(err)
	}
	for e.state == Running {
		if err := e.RefreshScreen(); err != nil {
			return e.die(err)
		}
		if err := e.ProcessKeypress(); err != nil {
			return e.die(err)
		}
	}

	if err := e.term.ExitRawMode(); err != nil {
		e.log.Printf("Error: exit raw mode: %v", err)
		return 1
	}
	return e.exitCode
}

// die leaves the terminal readable and reports err.
func (e *Editor) die(err error) int {
	e.state = Terminating
	e.exitCode = 1
	_ = e.clearScreen()
	if rerr := e.term.ExitRawMode(); rerr != nil {
		e.log.Printf("Error: exit raw mode: %v", rerr)
	}
	e.log.Printf("Error: %v", err)
	return e.exitCode
}
