package codec

import "encoding/binary"

// Reader is a little-endian cursor over a characteristic value.
// Every read names the field it consumes so failures point at the exact field.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(field string, n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, &DecodeError{Kind: TooShort, Field: field, Offset: r.off, Need: n, Have: r.Remaining()}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint8 reads one byte
func (r *Reader) Uint8(field string) (uint8, error) {
	b, err := r.take(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a little-endian uint16
func (r *Reader) Uint16(field string) (uint16, error) {
	b, err := r.take(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int16 reads a little-endian two's complement int16
func (r *Reader) Int16(field string) (int16, error) {
	v, err := r.Uint16(field)
	return int16(v), err
}

// Int32 reads a little-endian two's complement int32
func (r *Reader) Int32(field string) (int32, error) {
	b, err := r.take(field, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// SFloat reads an IEEE-11073 16-bit SFLOAT
func (r *Reader) SFloat(field string) (SFloat, error) {
	v, err := r.Uint16(field)
	if err != nil {
		return SFloat{}, err
	}
	return ParseSFloat(v), nil
}

// DateTime reads the 7-byte date time structure
func (r *Reader) DateTime(field string) (DateTime, error) {
	b, err := r.take(field, DateTimeSize)
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{
		Year:    binary.LittleEndian.Uint16(b[0:2]),
		Month:   b[2],
		Day:     b[3],
		Hours:   b[4],
		Minutes: b[5],
		Seconds: b[6],
	}, nil
}

// Done fails with TrailingBytes when unread bytes remain.
// Decoders call it last so the consumed length must equal the length the flags imply.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return &DecodeError{Kind: TrailingBytes, Offset: r.off, Need: r.off, Have: len(r.data)}
	}
	return nil
}

// Exact checks that data is exactly n bytes wide, for fixed-format characteristics
func Exact(field string, data []byte, n int) error {
	if len(data) < n {
		return &DecodeError{Kind: TooShort, Field: field, Need: n, Have: len(data)}
	}
	if len(data) > n {
		return &DecodeError{Kind: TrailingBytes, Field: field, Need: n, Have: len(data)}
	}
	return nil
}
