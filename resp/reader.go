package resp

import (
	"bufio"
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Limits and Errors
// --------------------------------------------------------------------------

const (
	// MaxBulkLen is the largest declared bulk string length the reader
	// accepts (512 MiB, the Redis proto limit).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen is the largest declared array field count the reader
	// accepts.
	MaxArrayLen = 1024 * 1024

	// maxDepth bounds array nesting so crafted input cannot exhaust the
	// stack.
	maxDepth = 32
)

// ProtocolError indicates a byte stream that cannot be decoded into a Value.
// The connection that produced it holds no recoverable frame boundary and
// must be closed.
type ProtocolError string

// Error implements the error interface.
func (e ProtocolError) Error() string {
	return "resp: protocol error: " + string(e)
}

func protoErrorf(format string, args ...any) error {
	return ProtocolError(fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader decodes values from a byte stream.
type Reader struct {
	r *bufio.Reader
}

// NewReader creates a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadValue decodes one complete value, including all fields of a nested
// array. It returns io.EOF only if the stream ends cleanly before the first
// byte of a value; a stream ending mid-value yields io.ErrUnexpectedEOF.
func (r *Reader) ReadValue() (Value, error) {
	return r.readValue(0)
}

func (r *Reader) readValue(depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, protoErrorf("array nesting exceeds %d levels", maxDepth)
	}

	prefix, err := r.r.ReadByte()
	if err != nil {
		return Value{}, err
	}

	switch prefix {
	case '+':
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return Simple(string(line)), nil

	case '-':
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return Err(string(line)), nil

	case ':':
		n, err := r.readIntLine()
		if err != nil {
			return Value{}, err
		}
		return Integer(n), nil

	case '$':
		n, err := r.readIntLine()
		if err != nil {
			return Value{}, err
		}
		if n == -1 {
			return Null(), nil
		}
		if n < 0 || n > MaxBulkLen {
			return Value{}, protoErrorf("invalid bulk length %d", n)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return Value{}, noEOF(err)
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Value{}, protoErrorf("bulk string not terminated by CRLF")
		}
		return Bulk(buf[:n]), nil

	case '*':
		n, err := r.readIntLine()
		if err != nil {
			return Value{}, err
		}
		if n == -1 {
			return Null(), nil
		}
		if n < 0 || n > MaxArrayLen {
			return Value{}, protoErrorf("invalid array length %d", n)
		}
		fields := make([]Value, n)
		for i := range fields {
			field, err := r.readValue(depth + 1)
			if err != nil {
				return Value{}, noEOF(err)
			}
			fields[i] = field
		}
		return Array(fields...), nil

	default:
		return Value{}, protoErrorf("invalid type byte %q", prefix)
	}
}

// readLine reads up to and including CRLF and returns the line without the
// terminator.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.r.ReadBytes('\n')
	if err != nil {
		return nil, noEOF(err)
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, protoErrorf("line not terminated by CRLF")
	}
	return line[:len(line)-2], nil
}

// readIntLine reads a CRLF-terminated line holding a decimal integer with an
// optional leading minus sign.
func (r *Reader) readIntLine() (int64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	if len(line) == 0 {
		return 0, protoErrorf("empty integer")
	}

	neg := false
	if line[0] == '-' {
		neg = true
		line = line[1:]
		if len(line) == 0 {
			return 0, protoErrorf("empty integer")
		}
	}

	var n int64
	for _, b := range line {
		if b < '0' || b > '9' {
			return 0, protoErrorf("invalid integer %q", line)
		}
		digit := int64(b - '0')
		if n > (1<<63-1-digit)/10 {
			return 0, protoErrorf("integer overflow")
		}
		n = n*10 + digit
	}
	if neg {
		n = -n
	}
	return n, nil
}

// noEOF converts io.EOF to io.ErrUnexpectedEOF. A clean EOF is only valid
// before the first byte of a value.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
