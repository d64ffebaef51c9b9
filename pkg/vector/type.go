// Package vector is the core's stand-in for the "vector primitives" and
// "DataChunk" collaborators spec.md treats as external: CopyToStorage,
// HasNull, Unique, GenerateSequence, Sort, Exec, Reference.
package vector

import "fmt"

// Type is the closed set of fixed-width wire types the storage layer
// understands. Variable-length payloads (String) are stored as a fixed
// 8-byte heap reference, same width as Int64/Float64.
type Type uint8

const (
	TypeInt32 Type = iota
	TypeInt64
	TypeFloat64
	TypeBool
	TypeString
)

// Size returns sizeof(t) in bytes, the unit ColumnSegment offsets are
// computed in.
func (t Type) Size() int {
	switch t {
	case TypeInt32:
		return 4
	case TypeInt64, TypeFloat64, TypeString:
		return 8
	case TypeBool:
		return 1
	default:
		panic(fmt.Sprintf("vector: unknown type %d", t))
	}
}

func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeFloat64:
		return "FLOAT64"
	case TypeBool:
		return "BOOL"
	case TypeString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}
