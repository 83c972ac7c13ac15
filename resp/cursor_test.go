package resp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRequiresArray(t *testing.T) {
	_, err := NewCursor(Simple("OK"))
	require.Error(t, err)

	var wtErr WrongTypeError
	require.ErrorAs(t, err, &wtErr)
	require.Equal(t, "array", wtErr.Expected)
	require.Equal(t, TypeSimple, wtErr.Got)
}

func TestCursorNextString(t *testing.T) {
	c, err := NewCursor(Array(BulkString("bulk"), Simple("simple")))
	require.NoError(t, err)

	s, err := c.NextString()
	require.NoError(t, err)
	require.Equal(t, "bulk", s)

	s, err = c.NextString()
	require.NoError(t, err)
	require.Equal(t, "simple", s)

	_, err = c.NextString()
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestCursorNextStringWrongType(t *testing.T) {
	c, err := NewCursor(Array(Integer(7)))
	require.NoError(t, err)

	_, err = c.NextString()
	var wtErr WrongTypeError
	require.ErrorAs(t, err, &wtErr)
	require.Equal(t, TypeInteger, wtErr.Got)
}

func TestCursorNextInt(t *testing.T) {
	c, err := NewCursor(Array(Integer(42), Integer(-1)))
	require.NoError(t, err)

	n, err := c.NextInt()
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	n, err = c.NextInt()
	require.NoError(t, err)
	require.Equal(t, int64(-1), n)

	_, err = c.NextInt()
	require.ErrorIs(t, err, ErrEndOfStream)
}

// A numeric payload in a bulk field must not pass as an integer. The kinds
// are part of the wire contract, not a matter of representation.
func TestCursorNextIntWrongType(t *testing.T) {
	for _, field := range []Value{BulkString("2"), Simple("2"), Null(), Array()} {
		c, err := NewCursor(Array(field))
		require.NoError(t, err)

		_, err = c.NextInt()
		var wtErr WrongTypeError
		require.ErrorAs(t, err, &wtErr, "field %s must not decode as integer", field)
		require.Equal(t, "integer", wtErr.Expected)
	}
}

func TestCursorNextBytes(t *testing.T) {
	payload := []byte{0, 1, '\r', '\n'}
	c, err := NewCursor(Array(Bulk(payload), Null()))
	require.NoError(t, err)

	b, err := c.NextBytes()
	require.NoError(t, err)
	require.Equal(t, payload, b)

	_, err = c.NextBytes()
	var wtErr WrongTypeError
	require.ErrorAs(t, err, &wtErr)
	require.Equal(t, TypeNull, wtErr.Got)
}

func TestCursorFinish(t *testing.T) {
	c, err := NewCursor(Array(BulkString("a"), BulkString("b")))
	require.NoError(t, err)
	require.Equal(t, 2, c.Remaining())

	_, err = c.NextString()
	require.NoError(t, err)
	require.Error(t, c.Finish(), "Finish must fail with one field left")
	require.Equal(t, 1, c.Remaining())

	_, err = c.NextString()
	require.NoError(t, err)
	require.NoError(t, c.Finish())
	require.Equal(t, 0, c.Remaining())
}

func TestCursorEmptyArray(t *testing.T) {
	c, err := NewCursor(Array())
	require.NoError(t, err)
	require.Equal(t, 0, c.Remaining())
	require.NoError(t, c.Finish())

	_, err = c.NextString()
	require.ErrorIs(t, err, ErrEndOfStream)
}
