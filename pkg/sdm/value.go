package sdm

import "math"

// ValueType tags the variant held by a Value.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeInt
	TypeUint
	TypeDouble
	TypeBool
	TypeBytes
	TypeString
	TypeTime
	TypeObjLnk
	TypeExternalBytes
	TypeExternalString
)

func (t ValueType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	case TypeBytes:
		return "bytes"
	case TypeString:
		return "string"
	case TypeTime:
		return "time"
	case TypeObjLnk:
		return "objlnk"
	case TypeExternalBytes:
		return "external_bytes"
	case TypeExternalString:
		return "external_string"
	default:
		return "unknown"
	}
}

// ObjLnk is an (Object-ID, Instance-ID) link value.
type ObjLnk struct {
	ObjectID   uint16
	InstanceID uint16
}

// Chunk carries a streamed bytes/string fragment: the bytes/chars
// themselves, the offset in the logical value they start at, and a
// hint of the full value length (-1 if unknown to the producer). A
// chunk is the final one of a streamed write iff its length plus
// offset equals FullLength.
type Chunk struct {
	Data       []byte
	Offset     uint32
	FullLength int64
}

// IsFinal reports whether this chunk completes the value.
func (c Chunk) IsFinal() bool {
	return c.FullLength >= 0 && int64(len(c.Data))+int64(c.Offset) == c.FullLength
}

// ExternalBytesSource is a user-owned, read-only streamed byte source
// (e.g. a file-backed firmware package). Value never mutates it.
type ExternalBytesSource interface {
	ReadChunk(offset uint32, buf []byte) (n int, fullLength int64, err error)
}

// ExternalStringSource is the string analogue of ExternalBytesSource.
type ExternalStringSource interface {
	ReadChunk(offset uint32, buf []byte) (n int, fullLength int64, err error)
}

// Value is a tagged union over the primitive LwM2M resource value
// types plus the two external (callback-backed, read-only) stream
// variants.
type Value struct {
	Type ValueType

	Int    int64
	Uint   uint64
	Double float64
	Bool   bool
	Time   int64
	ObjLnk ObjLnk

	Bytes Chunk
	Str   Chunk

	ExternalBytes ExternalBytesSource
	ExternalStr   ExternalStringSource
}

func IntValue(v int64) Value      { return Value{Type: TypeInt, Int: v} }
func UintValue(v uint64) Value    { return Value{Type: TypeUint, Uint: v} }
func DoubleValue(v float64) Value { return Value{Type: TypeDouble, Double: v} }
func BoolValue(v bool) Value      { return Value{Type: TypeBool, Bool: v} }
func TimeValue(v int64) Value     { return Value{Type: TypeTime, Time: v} }
func ObjLnkValue(oid, iid uint16) Value {
	return Value{Type: TypeObjLnk, ObjLnk: ObjLnk{ObjectID: oid, InstanceID: iid}}
}

// BytesValue builds a non-streamed (single-chunk, fully known length) bytes value.
func BytesValue(data []byte) Value {
	return Value{Type: TypeBytes, Bytes: Chunk{Data: data, Offset: 0, FullLength: int64(len(data))}}
}

// StringValue builds a non-streamed (single-chunk, fully known length) string value.
func StringValue(s string) Value {
	return Value{Type: TypeString, Str: Chunk{Data: []byte(s), Offset: 0, FullLength: int64(len(s))}}
}

// BytesChunkValue builds a bytes value from an explicit streamed chunk.
func BytesChunkValue(c Chunk) Value { return Value{Type: TypeBytes, Bytes: c} }

// StringChunkValue builds a string value from an explicit streamed chunk.
func StringChunkValue(c Chunk) Value { return Value{Type: TypeString, Str: c} }

// AsString renders a fully-assembled string value's text. It does not
// validate that the chunk is final; callers that care should check
// IsFinal first.
func (v Value) AsString() string { return string(v.Str.Data) }

// Equal implements the type-appropriate equality the observation
// subsystem uses for change detection: bitwise for ints/bool/time/
// objlnk, bit-pattern comparison (math.Float64bits) rather than IEEE `==`
// for doubles — so two identically-bit-patterned NaNs compare equal and
// +0.0/-0.0 compare unequal, matching spec §4.4.10's "bitwise equality of
// f64" — full-length-bounded byte comparison for bytes/string, and "never
// equal" for the external (callback-backed) variants, since their
// content cannot be compared without re-reading the stream.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNone:
		return true
	case TypeInt:
		return v.Int == o.Int
	case TypeUint:
		return v.Uint == o.Uint
	case TypeDouble:
		return math.Float64bits(v.Double) == math.Float64bits(o.Double)
	case TypeBool:
		return v.Bool == o.Bool
	case TypeTime:
		return v.Time == o.Time
	case TypeObjLnk:
		return v.ObjLnk == o.ObjLnk
	case TypeBytes:
		return chunksEqual(v.Bytes, o.Bytes)
	case TypeString:
		return chunksEqual(v.Str, o.Str)
	case TypeExternalBytes, TypeExternalString:
		return false
	default:
		return false
	}
}

func chunksEqual(a, b Chunk) bool {
	if a.FullLength != b.FullLength {
		return false
	}
	n := a.FullLength
	if n < 0 {
		n = int64(len(a.Data))
	}
	if int64(len(a.Data)) < n || int64(len(b.Data)) < n {
		return false
	}
	for i := int64(0); i < n; i++ {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}
