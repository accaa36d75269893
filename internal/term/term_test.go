package term

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// openPTY returns a pseudo-terminal pair, skipping the test when the
// platform cannot provide one.
func openPTY(t *testing.T) (ptmx, tty *os.File) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	t.Cleanup(func() {
		tty.Close()
		ptmx.Close()
	})
	return ptmx, tty
}

func currentTermios(t *testing.T, f *os.File) unix.Termios {
	t.Helper()
	tio, err := unix.IoctlGetTermios(int(f.Fd()), ioctlGetTermios)
	if err != nil {
		t.Fatalf("get termios: %v", err)
	}
	return *tio
}

func TestRawModeRoundTrip(t *testing.T) {
	_, tty := openPTY(t)
	before := currentTermios(t, tty)

	term := New(tty, tty)
	if err := term.EnterRawMode(); err != nil {
		t.Fatalf("EnterRawMode: %v", err)
	}
	if !term.Raw() {
		t.Error("Raw() = false after EnterRawMode")
	}

	raw := Settings{tio: currentTermios(t, tty)}
	for _, c := range RawCapabilities {
		if raw.Enabled(c) {
			t.Errorf("%v enabled on the device in raw mode", c)
		}
	}
	if minBytes, timeout := raw.ReadTimeout(); minBytes != 0 || timeout != 1 {
		t.Errorf("device read timeout = (%d, %d), want (0, 1)", minBytes, timeout)
	}

	if err := term.ExitRawMode(); err != nil {
		t.Fatalf("ExitRawMode: %v", err)
	}
	if term.Raw() {
		t.Error("Raw() = true after ExitRawMode")
	}
	if after := currentTermios(t, tty); after != before {
		t.Errorf("terminal not restored:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestEnterRawModeTwiceKeepsBaseline(t *testing.T) {
	_, tty := openPTY(t)
	before := currentTermios(t, tty)

	term := New(tty, tty)
	if err := term.EnterRawMode(); err != nil {
		t.Fatalf("EnterRawMode: %v", err)
	}
	if err := term.EnterRawMode(); err != nil {
		t.Fatalf("second EnterRawMode: %v", err)
	}

	base, ok := term.Baseline()
	if !ok {
		t.Fatal("no baseline captured")
	}
	if base.tio != before {
		t.Error("second EnterRawMode replaced the baseline")
	}

	if err := term.ExitRawMode(); err != nil {
		t.Fatalf("ExitRawMode: %v", err)
	}
	if after := currentTermios(t, tty); after != before {
		t.Error("terminal not restored to the first baseline")
	}
}

func TestExitRawModeWithoutEnter(t *testing.T) {
	_, tty := openPTY(t)
	term := New(tty, tty)
	if err := term.ExitRawMode(); err != nil {
		t.Errorf("ExitRawMode before EnterRawMode: %v", err)
	}
}

func TestEnterRawModeNotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	err = New(r, w).EnterRawMode()
	var ioErr *TerminalIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("EnterRawMode on a pipe = %v, want TerminalIOError", err)
	}
	if ioErr.Op != "tcgetattr" {
		t.Errorf("Op = %q, want tcgetattr", ioErr.Op)
	}
	if !errors.Is(err, unix.ENOTTY) {
		t.Errorf("error should wrap ENOTTY, got %v", err)
	}
}

func TestEnterRawModeApplyFailure(t *testing.T) {
	_, tty := openPTY(t)
	before := currentTermios(t, tty)

	term := New(tty, tty)
	term.setAttrs = func(int, *unix.Termios) error { return unix.EIO }

	err := term.EnterRawMode()
	var ioErr *TerminalIOError
	if !errors.As(err, &ioErr) || ioErr.Op != "tcsetattr" {
		t.Fatalf("EnterRawMode = %v, want tcsetattr TerminalIOError", err)
	}
	if !errors.Is(err, unix.EIO) {
		t.Errorf("error should wrap EIO, got %v", err)
	}
	if term.Raw() {
		t.Error("Raw() = true after a failed apply")
	}
	if after := currentTermios(t, tty); after != before {
		t.Error("failed apply changed the device")
	}
}

func TestExitRawModeFailureIsNotRetried(t *testing.T) {
	_, tty := openPTY(t)
	term := New(tty, tty)
	if err := term.EnterRawMode(); err != nil {
		t.Fatalf("EnterRawMode: %v", err)
	}

	calls := 0
	apply := term.setAttrs
	term.setAttrs = func(fd int, tio *unix.Termios) error {
		calls++
		return unix.EIO
	}
	t.Cleanup(func() {
		base, _ := term.Baseline()
		apply(int(tty.Fd()), &base.tio)
	})

	var ioErr *TerminalIOError
	if err := term.ExitRawMode(); !errors.As(err, &ioErr) {
		t.Fatalf("ExitRawMode = %v, want TerminalIOError", err)
	}
	if err := term.ExitRawMode(); err != nil {
		t.Errorf("second ExitRawMode = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("restore attempted %d times, want 1", calls)
	}
}

func TestSizeFromWindowSize(t *testing.T) {
	ptmx, tty := openPTY(t)
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 40, Cols: 120}); err != nil {
		t.Fatalf("Setsize: %v", err)
	}

	var out bytes.Buffer
	size, err := New(tty, &out).Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != (Size{Rows: 40, Cols: 120}) {
		t.Errorf("size = %+v, want 40x120", size)
	}
	if out.Len() != 0 {
		t.Errorf("cursor fallback ran, wrote %q", out.String())
	}
}

func TestSizeCookedModeSkipsCursorReport(t *testing.T) {
	ptmx, tty := openPTY(t)
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 0, Cols: 0}); err != nil {
		t.Fatalf("Setsize: %v", err)
	}

	var out bytes.Buffer
	_, err := New(tty, &out).Size()
	var gerr *GeometryError
	if !errors.As(err, &gerr) || !errors.Is(err, errNotRaw) {
		t.Fatalf("Size in canonical mode = %v, want raw mode GeometryError", err)
	}
	if out.Len() != 0 {
		t.Errorf("cursor request sent in canonical mode: %q", out.String())
	}
}

func TestSizeFromCursorReport(t *testing.T) {
	ptmx, tty := openPTY(t)
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 0, Cols: 0}); err != nil {
		t.Fatalf("Setsize: %v", err)
	}

	term := New(tty, tty)
	if err := term.EnterRawMode(); err != nil {
		t.Fatalf("EnterRawMode: %v", err)
	}
	defer term.ExitRawMode()

	// Play the terminal: answer the position request once it arrives.
	requested := make(chan []byte, 1)
	go func() {
		var seen []byte
		buf := make([]byte, 64)
		for !bytes.HasSuffix(seen, []byte(seqCursorReport)) {
			n, err := ptmx.Read(buf)
			if err != nil {
				break
			}
			seen = append(seen, buf[:n]...)
		}
		ptmx.Write([]byte("\x1b[24;80R"))
		requested <- seen
	}()

	size, err := term.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != (Size{Rows: 24, Cols: 80}) {
		t.Errorf("size = %+v, want 24x80", size)
	}

	select {
	case seen := <-requested:
		if string(seen) != seqCursorToCorner+seqCursorReport {
			t.Errorf("terminal received %q", seen)
		}
	case <-time.After(2 * time.Second):
		t.Error("position request never reached the terminal")
	}
}
