package receipt

import "bytes"

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// FrameESCPOS wraps receipt text for a raw ESC/POS printer: initialize,
// body, then a partial cut.
func FrameESCPOS(text string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(text) + 8)
	buf.Write([]byte{esc, '@'})
	buf.WriteString(text)
	if len(text) == 0 || text[len(text)-1] != lf {
		buf.WriteByte(lf)
	}
	buf.Write([]byte{gs, 'V', 1})
	return buf.Bytes()
}
