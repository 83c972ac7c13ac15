package resp

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// testValues creates a set of values covering every kind the codec supports
func testValues() []Value {
	return []Value{
		Simple("OK"),
		Simple(""),
		Err("ERR something went wrong"),
		Integer(0),
		Integer(42),
		Integer(-42),
		Integer(1<<63 - 1),
		BulkString("hello"),
		BulkString(""),
		Bulk([]byte{0, 1, 2, '\r', '\n', 0xff}),
		Null(),
		Array(),
		Array(BulkString("a")),
		Array(BulkString("multiget"), Integer(2), BulkString("a"), BulkString("b")),
		Array(Integer(1), Null(), Array(Simple("nested"), Integer(-1))),
	}
}

// TestValueRoundTrip tests that every value kind survives encode/decode unchanged
func TestValueRoundTrip(t *testing.T) {
	for i, v := range testValues() {
		var buf bytes.Buffer
		w := NewWriter(&buf)

		if err := w.WriteValue(v); err != nil {
			t.Errorf("Failed to encode value %d (%s): %v", i, v, err)
			continue
		}
		if err := w.Flush(); err != nil {
			t.Errorf("Failed to flush value %d: %v", i, err)
			continue
		}

		result, err := NewReader(&buf).ReadValue()
		if err != nil {
			t.Errorf("Failed to decode value %d (%s): %v", i, v, err)
			continue
		}

		if !reflect.DeepEqual(v, result) {
			t.Errorf("Value %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
				i, v, result)
		}
	}
}

// TestValueEncoding tests the exact wire bytes of each kind
func TestValueEncoding(t *testing.T) {
	testCases := []struct {
		name  string
		value Value
		wire  string
	}{
		{name: "Simple string", value: Simple("OK"), wire: "+OK\r\n"},
		{name: "Error", value: Err("ERR unknown command"), wire: "-ERR unknown command\r\n"},
		{name: "Integer", value: Integer(128), wire: ":128\r\n"},
		{name: "Negative integer", value: Integer(-42), wire: ":-42\r\n"},
		{name: "Bulk string", value: BulkString("hello"), wire: "$5\r\nhello\r\n"},
		{name: "Empty bulk string", value: BulkString(""), wire: "$0\r\n\r\n"},
		{name: "Null", value: Null(), wire: "$-1\r\n"},
		{name: "Empty array", value: Array(), wire: "*0\r\n"},
		{
			name:  "Request array",
			value: Array(BulkString("multiget"), Integer(2), BulkString("a"), BulkString("b")),
			wire:  "*4\r\n$8\r\nmultiget\r\n:2\r\n$1\r\na\r\n$1\r\nb\r\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := w.WriteValue(tc.value); err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Failed to flush: %v", err)
			}
			if buf.String() != tc.wire {
				t.Errorf("Wire bytes don't match:\nExpected: %q\nGot: %q", tc.wire, buf.String())
			}
		})
	}
}

// TestReaderMalformedInput tests that malformed streams are rejected
func TestReaderMalformedInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "Invalid type byte", input: "x123\r\n"},
		{name: "Missing CR", input: "+OK\n"},
		{name: "Non-numeric integer", input: ":12a3\r\n"},
		{name: "Empty integer", input: ":\r\n"},
		{name: "Bare minus", input: ":-\r\n"},
		{name: "Integer overflow", input: ":9223372036854775808\r\n"},
		{name: "Negative bulk length", input: "$-2\r\n"},
		{name: "Bulk length over limit", input: "$536870913\r\n"},
		{name: "Bulk without CRLF terminator", input: "$3\r\nabcXY"},
		{name: "Negative array length", input: "*-2\r\n"},
		{name: "Array length over limit", input: "*1048577\r\n"},
		{name: "Nesting too deep", input: strings.Repeat("*1\r\n", 64)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.input)).ReadValue()
			if err == nil {
				t.Fatalf("Expected error for input %q, got none", tc.input)
			}
			var perr ProtocolError
			if !errors.As(err, &perr) {
				t.Errorf("Expected ProtocolError for input %q, got %v", tc.input, err)
			}
		})
	}
}

// TestReaderTruncatedInput tests that streams ending mid-value are
// distinguished from clean EOF
func TestReaderTruncatedInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "Truncated line", input: "+OK"},
		{name: "Truncated bulk payload", input: "$5\r\nab"},
		{name: "Truncated array", input: "*2\r\n+a\r\n"},
		{name: "Header only", input: "*2\r\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.input)).ReadValue()
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("Expected io.ErrUnexpectedEOF for input %q, got %v", tc.input, err)
			}
		})
	}
}

// TestReaderCleanEOF tests that an empty stream reports io.EOF so callers can
// detect an orderly peer shutdown
func TestReaderCleanEOF(t *testing.T) {
	_, err := NewReader(strings.NewReader("")).ReadValue()
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF on empty stream, got %v", err)
	}
}

// TestReaderNullArray tests that the legacy null array encoding decodes to
// the null value
func TestReaderNullArray(t *testing.T) {
	v, err := NewReader(strings.NewReader("*-1\r\n")).ReadValue()
	if err != nil {
		t.Fatalf("Failed to decode null array: %v", err)
	}
	if !v.IsNull() {
		t.Errorf("Expected null, got %+v", v)
	}
}

// TestReaderSequentialValues tests that multiple values can be read from one
// stream in order
func TestReaderSequentialValues(t *testing.T) {
	r := NewReader(strings.NewReader("+first\r\n:2\r\n$5\r\nthird\r\n"))

	expected := []Value{Simple("first"), Integer(2), BulkString("third")}
	for i, want := range expected {
		got, err := r.ReadValue()
		if err != nil {
			t.Fatalf("Failed to read value %d: %v", i, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("Value %d doesn't match: expected %+v, got %+v", i, want, got)
		}
	}

	if _, err := r.ReadValue(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after last value, got %v", err)
	}
}
