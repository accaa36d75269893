package editor

import (
	"bytes"
	"io"

	"github.com/islml/tilde/internal/term"
)

const (
	seqClearScreen = "\x1b[2J"
	seqCursorHome  = "\x1b[H"

	rowGlyph  = '~'
	lineBreak = "\r\n"
)

// drawRows paints one placeholder glyph per screen row. The last row gets
// no line break so the terminal does not scroll.
func drawRows(buf *bytes.Buffer, size term.Size) {
	for y := 0; y < size.Rows; y++ {
		buf.WriteByte(rowGlyph)
		if y < size.Rows-1 {
			buf.WriteString(lineBreak)
		}
	}
}

// frame builds a full redraw for size. Every frame repaints the whole
// screen; there is no differential update.
func frame(size term.Size) []byte {
	var buf bytes.Buffer
	buf.WriteString(seqClearScreen)
	buf.WriteString(seqCursorHome)
	drawRows(&buf, size)
	buf.WriteString(seqCursorHome)
	return buf.Bytes()
}

// ClearScreen blanks the display and homes the cursor so the terminal is
// readable after the editor stops.
func ClearScreen(w io.Writer) error {
	_, err := io.WriteString(w, seqClearScreen+seqCursorHome)
	return err
}
