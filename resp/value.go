package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Value Model
// --------------------------------------------------------------------------

// Type identifies the wire kind of a Value.
type Type byte

const (
	TypeSimple Type = iota
	TypeError
	TypeInteger
	TypeBulk
	TypeNull
	TypeArray
)

// String returns the protocol name of the type (used in error messages).
func (t Type) String() string {
	switch t {
	case TypeSimple:
		return "simple string"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulk:
		return "bulk string"
	case TypeNull:
		return "null"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Value is the wire value model of the protocol. Exactly one payload field is
// meaningful, selected by Type: Str for simple strings and errors, Int for
// integers, Bulk for bulk strings, Array for arrays. Null carries no payload.
type Value struct {
	Type  Type
	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// Simple returns a simple string value (e.g. the "OK" status reply).
func Simple(s string) Value {
	return Value{Type: TypeSimple, Str: s}
}

// Err returns an error value. By convention the message starts with an
// upper-case code word such as "ERR".
func Err(msg string) Value {
	return Value{Type: TypeError, Str: msg}
}

// Errf returns an error value with a formatted message.
func Errf(format string, args ...any) Value {
	return Err(fmt.Sprintf(format, args...))
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{Type: TypeInteger, Int: n}
}

// Bulk returns a bulk string value holding b. The slice is not copied.
func Bulk(b []byte) Value {
	return Value{Type: TypeBulk, Bulk: b}
}

// BulkString returns a bulk string value holding s.
func BulkString(s string) Value {
	return Value{Type: TypeBulk, Bulk: []byte(s)}
}

// Null returns the null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// Array returns an array value over the given fields.
func Array(fields ...Value) Value {
	if fields == nil {
		fields = []Value{}
	}
	return Value{Type: TypeArray, Array: fields}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// IsNull reports whether the value is the null value.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// Text returns the payload of a simple, error or bulk value as a string.
// For all other types it returns the empty string.
func (v Value) Text() string {
	switch v.Type {
	case TypeSimple, TypeError:
		return v.Str
	case TypeBulk:
		return string(v.Bulk)
	default:
		return ""
	}
}

// String renders the value for logs and interactive output. The rendering is
// lossless for scalar kinds and recurses into arrays.
func (v Value) String() string {
	switch v.Type {
	case TypeSimple:
		return v.Str
	case TypeError:
		return "(error) " + v.Str
	case TypeInteger:
		return "(integer) " + strconv.FormatInt(v.Int, 10)
	case TypeBulk:
		return strconv.Quote(string(v.Bulk))
	case TypeNull:
		return "(nil)"
	case TypeArray:
		fields := make([]string, len(v.Array))
		for i, f := range v.Array {
			fields[i] = f.String()
		}
		return "[" + strings.Join(fields, " ") + "]"
	default:
		return fmt.Sprintf("(unknown type %d)", byte(v.Type))
	}
}
