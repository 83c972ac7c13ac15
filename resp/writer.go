package resp

import (
	"bufio"
	"io"
	"strconv"
)

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer encodes values to a byte stream. Writes are buffered; callers decide
// when a response is complete and call Flush.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteValue encodes one value, including all fields of a nested array. The
// encoding is the exact inverse of Reader.ReadValue.
func (w *Writer) WriteValue(v Value) error {
	switch v.Type {
	case TypeSimple:
		return w.writeLine('+', []byte(v.Str))

	case TypeError:
		return w.writeLine('-', []byte(v.Str))

	case TypeInteger:
		return w.writeLine(':', strconv.AppendInt(nil, v.Int, 10))

	case TypeBulk:
		if err := w.writeLine('$', strconv.AppendInt(nil, int64(len(v.Bulk)), 10)); err != nil {
			return err
		}
		if _, err := w.w.Write(v.Bulk); err != nil {
			return err
		}
		return w.crlf()

	case TypeNull:
		return w.writeLine('$', []byte("-1"))

	case TypeArray:
		if err := w.writeLine('*', strconv.AppendInt(nil, int64(len(v.Array)), 10)); err != nil {
			return err
		}
		for _, field := range v.Array {
			if err := w.WriteValue(field); err != nil {
				return err
			}
		}
		return nil

	default:
		return protoErrorf("cannot encode type %q", v.Type)
	}
}

// Flush writes all buffered bytes to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeLine(prefix byte, payload []byte) error {
	if err := w.w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	return w.crlf()
}

func (w *Writer) crlf() error {
	_, err := w.w.Write([]byte{'\r', '\n'})
	return err
}
