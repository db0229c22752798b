package codec

import "encoding/binary"

// Writer builds a little-endian characteristic value
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity for n bytes
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Uint16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) Int16(v int16) *Writer {
	return w.Uint16(uint16(v))
}

func (w *Writer) Int32(v int32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	return w
}

func (w *Writer) SFloat(v SFloat) *Writer {
	return w.Uint16(v.Raw())
}

func (w *Writer) DateTime(dt DateTime) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, dt.Year)
	w.buf = append(w.buf, dt.Month, dt.Day, dt.Hours, dt.Minutes, dt.Seconds)
	return w
}

// Bytes returns the encoded value
func (w *Writer) Bytes() []byte {
	return w.buf
}
