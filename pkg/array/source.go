package array

// Ref is an externally owned array resource, such as an array widget
// living on the peer. It serializes itself; the codec never copies it.
type Ref interface {
	// Array returns the referenced values, or nil when they are not
	// available host-side.
	Array() *Array
	// Wire returns the reference's own wire representation.
	Wire() (any, error)
}

// Source is an array-valued attribute: either an inline array or a
// reference to an external one. The zero Source is empty.
type Source struct {
	inline *Array
	ref    Ref
}

// Inline returns a Source holding a.
func Inline(a *Array) Source { return Source{inline: a} }

// Reference returns a Source pointing at r.
func Reference(r Ref) Source { return Source{ref: r} }

// IsZero reports whether the source holds nothing.
func (s Source) IsZero() bool { return s.inline == nil && s.ref == nil }

// IsRef reports whether the source is an external reference.
func (s Source) IsRef() bool { return s.ref != nil }

// Ref returns the external reference, or nil.
func (s Source) Ref() Ref { return s.ref }

// Array returns the values behind the source: the inline array, or what
// the reference exposes. It may be nil.
func (s Source) Array() *Array {
	if s.ref != nil {
		return s.ref.Array()
	}
	return s.inline
}

// Len returns the number of elements, 0 when unknown.
func (s Source) Len() int {
	if a := s.Array(); a != nil {
		return a.Size()
	}
	return 0
}

// Wire serializes the source. Inline arrays go through Encode; references
// use their own serializer. An empty source serializes to nil.
func (s Source) Wire() (any, error) {
	if s.ref != nil {
		return s.ref.Wire()
	}
	if s.inline == nil {
		return nil, nil
	}
	enc, err := Encode(s.inline)
	if err != nil {
		return nil, err
	}
	return enc.Wire(), nil
}
