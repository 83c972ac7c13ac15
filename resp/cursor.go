package resp

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Cursor Errors
// --------------------------------------------------------------------------

// ErrEndOfStream is returned by the cursor accessors when all fields of the
// array have been consumed.
var ErrEndOfStream = errors.New("resp: end of stream")

// WrongTypeError is returned by the cursor accessors when the next field
// exists but has a kind the accessor cannot yield.
type WrongTypeError struct {
	Expected string
	Got      Type
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return fmt.Sprintf("resp: expected %s, got %s", e.Expected, e.Got)
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

// Cursor reads the fields of one received array in order. It holds plain
// decoded data and touches no connection or store state, so consuming fields
// can never block and decode failures leave nothing to roll back.
type Cursor struct {
	fields []Value
	pos    int
}

// NewCursor creates a cursor over the fields of v. It fails if v is not an
// array, since every request frame of the protocol is one.
func NewCursor(v Value) (*Cursor, error) {
	if v.Type != TypeArray {
		return nil, WrongTypeError{Expected: "array", Got: v.Type}
	}
	return &Cursor{fields: v.Array}, nil
}

// Remaining returns the number of unconsumed fields.
func (c *Cursor) Remaining() int {
	return len(c.fields) - c.pos
}

// next consumes and returns the next field, or ErrEndOfStream.
func (c *Cursor) next() (Value, error) {
	if c.pos >= len(c.fields) {
		return Value{}, ErrEndOfStream
	}
	v := c.fields[c.pos]
	c.pos++
	return v, nil
}

// NextString consumes the next field as a string. Bulk and simple string
// fields qualify; any other kind is a wrong-type failure.
func (c *Cursor) NextString() (string, error) {
	v, err := c.next()
	if err != nil {
		return "", err
	}
	switch v.Type {
	case TypeBulk:
		return string(v.Bulk), nil
	case TypeSimple:
		return v.Str, nil
	default:
		return "", WrongTypeError{Expected: "string", Got: v.Type}
	}
}

// NextBytes consumes the next field as raw bytes. Bulk and simple string
// fields qualify; any other kind is a wrong-type failure.
func (c *Cursor) NextBytes() ([]byte, error) {
	v, err := c.next()
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case TypeBulk:
		return v.Bulk, nil
	case TypeSimple:
		return []byte(v.Str), nil
	default:
		return nil, WrongTypeError{Expected: "string", Got: v.Type}
	}
}

// NextInt consumes the next field as an integer. Only integer fields qualify:
// a count encoded as any other kind, digits or not, is a wrong-type failure.
func (c *Cursor) NextInt() (int64, error) {
	v, err := c.next()
	if err != nil {
		return 0, err
	}
	if v.Type != TypeInteger {
		return 0, WrongTypeError{Expected: "integer", Got: v.Type}
	}
	return v.Int, nil
}

// Finish asserts that every field has been consumed. A request with trailing
// fields is malformed.
func (c *Cursor) Finish() error {
	if c.pos < len(c.fields) {
		return protoErrorf("%d unexpected trailing fields", len(c.fields)-c.pos)
	}
	return nil
}
