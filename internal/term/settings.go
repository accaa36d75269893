package term

import "golang.org/x/sys/unix"

// Capability names a single terminal behaviour that raw mode switches off.
type Capability int

const (
	Echo Capability = iota
	Canonical
	Signals
	ExtendedInput
	CRToNL
	FlowControl
	OutputProcessing
	ParityCheck
	StripHighBit
	BreakSignal
)

var capabilityNames = [...]string{
	Echo:             "echo",
	Canonical:        "canonical-input",
	Signals:          "signal-generation",
	ExtendedInput:    "extended-input",
	CRToNL:           "cr-to-nl",
	FlowControl:      "flow-control",
	OutputProcessing: "output-postprocessing",
	ParityCheck:      "parity-check",
	StripHighBit:     "strip-high-bit",
	BreakSignal:      "break-signal",
}

func (c Capability) String() string {
	if c < 0 || int(c) >= len(capabilityNames) {
		return "unknown"
	}
	return capabilityNames[c]
}

// RawCapabilities lists every capability cleared by RawSettings.
// Signal generation lives in the local-mode field only.
var RawCapabilities = []Capability{
	Echo,
	Canonical,
	Signals,
	ExtendedInput,
	CRToNL,
	FlowControl,
	OutputProcessing,
	ParityCheck,
	StripHighBit,
	BreakSignal,
}

type capabilityBits struct {
	field func(t *unix.Termios) *tcflag
	mask  tcflag
}

func iflag(t *unix.Termios) *tcflag { return &t.Iflag }
func oflag(t *unix.Termios) *tcflag { return &t.Oflag }
func lflag(t *unix.Termios) *tcflag { return &t.Lflag }

var capabilityFlags = map[Capability]capabilityBits{
	Echo:             {lflag, unix.ECHO},
	Canonical:        {lflag, unix.ICANON},
	Signals:          {lflag, unix.ISIG},
	ExtendedInput:    {lflag, unix.IEXTEN},
	CRToNL:           {iflag, unix.ICRNL},
	FlowControl:      {iflag, unix.IXON},
	OutputProcessing: {oflag, unix.OPOST},
	ParityCheck:      {iflag, unix.INPCK},
	StripHighBit:     {iflag, unix.ISTRIP},
	BreakSignal:      {iflag, unix.BRKINT},
}

// Settings is a snapshot of a terminal's line discipline.
type Settings struct {
	tio unix.Termios
}

// Enable turns capability c on.
func (s *Settings) Enable(c Capability) {
	b, ok := capabilityFlags[c]
	if !ok {
		return
	}
	*b.field(&s.tio) |= b.mask
}

// Disable turns capability c off.
func (s *Settings) Disable(c Capability) {
	b, ok := capabilityFlags[c]
	if !ok {
		return
	}
	*b.field(&s.tio) &^= b.mask
}

// Enabled reports whether capability c is on.
func (s *Settings) Enabled(c Capability) bool {
	b, ok := capabilityFlags[c]
	if !ok {
		return false
	}
	return *b.field(&s.tio)&b.mask != 0
}

// SetCharSize8 selects 8-bit characters.
func (s *Settings) SetCharSize8() {
	s.tio.Cflag &^= unix.CSIZE
	s.tio.Cflag |= unix.CS8
}

// CharSize8 reports whether 8-bit characters are selected.
func (s *Settings) CharSize8() bool {
	return s.tio.Cflag&unix.CSIZE == unix.CS8
}

// SetReadTimeout sets the minimum byte count a read waits for and the
// read timeout in tenths of a second.
func (s *Settings) SetReadTimeout(minBytes, deciseconds uint8) {
	s.tio.Cc[unix.VMIN] = minBytes
	s.tio.Cc[unix.VTIME] = deciseconds
}

// ReadTimeout returns the values set by SetReadTimeout.
func (s *Settings) ReadTimeout() (minBytes, deciseconds uint8) {
	return s.tio.Cc[unix.VMIN], s.tio.Cc[unix.VTIME]
}

const (
	rawMinBytes    = 0
	rawDeciseconds = 1
)

// RawSettings derives the raw-mode configuration from base. base is
// not modified.
func RawSettings(base Settings) Settings {
	raw := base
	for _, c := range RawCapabilities {
		raw.Disable(c)
	}
	raw.SetCharSize8()
	raw.SetReadTimeout(rawMinBytes, rawDeciseconds)
	return raw
}
