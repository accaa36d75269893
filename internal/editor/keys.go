package editor

// Key is a single byte of input: a literal character or a Ctrl+<letter>
// encoding.
type Key byte

// CtrlKey returns the byte a terminal sends for Ctrl held with k.
func CtrlKey(k byte) Key {
	return Key(k & 0x1f)
}

// KeyQuit is Ctrl+Q.
const KeyQuit Key = 'q' & 0x1f
