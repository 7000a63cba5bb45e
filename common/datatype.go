package common

import "math"

// Datatype tags the kind of a primitive value end-to-end, from the mutable
// view through the op stream and into the resolved document cell.
type Datatype string

const (
	DatatypeNull      Datatype = "null"
	DatatypeBool      Datatype = "bool"
	DatatypeInt       Datatype = "int"
	DatatypeUint      Datatype = "uint"
	DatatypeFloat64   Datatype = "float64"
	DatatypeStr       Datatype = "str"
	DatatypeBytes     Datatype = "bytes"
	DatatypeTimestamp Datatype = "timestamp"
	DatatypeCounter   Datatype = "counter"
)

// MaxSafeInteger mirrors the largest integer a float64 can represent
// exactly, the boundary spec.md uses to decide between the int and float64
// tags for an untagged numeric literal.
const MaxSafeInteger = 1<<53 - 1

// IsSafeInteger reports whether f is integral and within
// [-MaxSafeInteger, MaxSafeInteger].
func IsSafeInteger(f float64) bool {
	if math.Trunc(f) != f {
		return false
	}
	return f >= -MaxSafeInteger && f <= MaxSafeInteger
}

// Int, Uint, Float64, Counter, and Timestamp are explicit wrapper types an
// application can use to force a numeric datatype tag instead of relying on
// ClassifyNumber's default (signed integer when safe, else float64).
type (
	Int       int64
	Uint      uint64
	Float64   float64
	Counter   int64
	Timestamp int64 // milliseconds since epoch
)

// ClassifyValue inspects a raw Go value supplied by the application and
// returns the Datatype it should be tagged with. Explicit wrapper types are
// honored; an untagged float64/int defaults per spec.md §4.1.
func ClassifyValue(v interface{}) Datatype {
	switch v.(type) {
	case nil:
		return DatatypeNull
	case bool:
		return DatatypeBool
	case Int, int, int8, int16, int32, int64:
		return DatatypeInt
	case Uint, uint, uint8, uint16, uint32, uint64:
		return DatatypeUint
	case Float64:
		return DatatypeFloat64
	case float32:
		return DatatypeFloat64
	case float64:
		f := v.(float64)
		if IsSafeInteger(f) {
			return DatatypeInt
		}
		return DatatypeFloat64
	case string:
		return DatatypeStr
	case []byte:
		return DatatypeBytes
	case Timestamp:
		return DatatypeTimestamp
	case Counter:
		return DatatypeCounter
	default:
		return DatatypeStr
	}
}

// IsSupportedPrimitive reports whether v is one of the Go types the value
// model accepts as a leaf value. Anything else is an unsupported value type
// per spec's assignment-failure case.
func IsSupportedPrimitive(v interface{}) bool {
	switch v.(type) {
	case nil, bool, string, []byte:
		return true
	case Int, int, int8, int16, int32, int64:
		return true
	case Uint, uint, uint8, uint16, uint32, uint64:
		return true
	case Float64, float32, float64:
		return true
	case Timestamp, Counter:
		return true
	default:
		return false
	}
}

// IsPrimitive reports whether dt denotes a leaf value rather than an object
// reference.
func (dt Datatype) IsPrimitive() bool {
	switch dt {
	case DatatypeNull, DatatypeBool, DatatypeInt, DatatypeUint, DatatypeFloat64,
		DatatypeStr, DatatypeBytes, DatatypeTimestamp, DatatypeCounter:
		return true
	}
	return false
}
