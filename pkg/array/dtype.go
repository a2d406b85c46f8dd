package array

// DType names an element type. The string form is the dtype tag sent on
// the wire.
type DType string

const (
	Int8       DType = "int8"
	Int16      DType = "int16"
	Int32      DType = "int32"
	Int64      DType = "int64"
	Uint8      DType = "uint8"
	Uint16     DType = "uint16"
	Uint32     DType = "uint32"
	Uint64     DType = "uint64"
	Float32    DType = "float32"
	Float64    DType = "float64"
	Bool       DType = "bool"
	Complex128 DType = "complex128"
)

// Kind returns the element kind code: 'i' signed, 'u' unsigned,
// 'f' float, 'b' boolean, 'c' complex, 0 if unknown.
func (d DType) Kind() byte {
	switch d {
	case Int8, Int16, Int32, Int64:
		return 'i'
	case Uint8, Uint16, Uint32, Uint64:
		return 'u'
	case Float32, Float64:
		return 'f'
	case Bool:
		return 'b'
	case Complex128:
		return 'c'
	}
	return 0
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}

// Numeric reports whether the dtype can be encoded for the wire.
func (d DType) Numeric() bool {
	switch d.Kind() {
	case 'i', 'u', 'f':
		return true
	}
	return false
}

// wire returns the dtype after transport narrowing: float64 becomes
// float32 and int64 becomes int32. Other numeric types are unchanged.
func (d DType) wire() DType {
	switch d {
	case Float64:
		return Float32
	case Int64:
		return Int32
	}
	return d
}
