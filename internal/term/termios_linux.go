package term

import "golang.org/x/sys/unix"

type tcflag = uint32

const (
	ioctlGetTermios = unix.TCGETS
	// Waits for pending output and discards unread input, like TCSAFLUSH.
	ioctlSetTermios = unix.TCSETSF
)
