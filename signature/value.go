package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is an optional numeric band field. The zero Value is absent and
// serialises as JSON null.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present Value.
func Some(v float64) Value {
	return Value{v: v, ok: true}
}

// Absent returns a missing Value.
func Absent() Value {
	return Value{}
}

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// IsSet reports whether the value is present.
func (v Value) IsSet() bool {
	return v.ok
}

// OrZero collapses an absent value to 0.
func (v Value) OrZero() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "null"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected number or null: %w", err)
	}
	*v = Some(f)
	return nil
}

// ScalarKind enumerates the value types an Attributes entry may hold.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindText
	KindNumber
)

// Scalar is a single location/source/metadata value: text, number or null.
type Scalar struct {
	kind ScalarKind
	text string
	num  float64
}

// Text returns a text Scalar.
func Text(s string) Scalar {
	return Scalar{kind: KindText, text: s}
}

// Number returns a numeric Scalar.
func Number(f float64) Scalar {
	return Scalar{kind: KindNumber, num: f}
}

// Null returns a null Scalar.
func Null() Scalar {
	return Scalar{}
}

// OptionalNumber returns Number(*f), or Null when f is nil.
func OptionalNumber(f *float64) Scalar {
	if f == nil {
		return Null()
	}
	return Number(*f)
}

func (s Scalar) Kind() ScalarKind { return s.kind }

func (s Scalar) IsNull() bool { return s.kind == KindNull }

// AsText returns the text value when the Scalar holds text.
func (s Scalar) AsText() (string, bool) {
	return s.text, s.kind == KindText
}

// AsNumber returns the numeric value when the Scalar holds a number.
func (s Scalar) AsNumber() (float64, bool) {
	return s.num, s.kind == KindNumber
}

func (s Scalar) String() string {
	switch s.kind {
	case KindText:
		return s.text
	case KindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindText:
		return json.Marshal(s.text)
	case KindNumber:
		return json.Marshal(s.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Booleans are kept as their text
// form; objects and arrays are rejected.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty scalar")
	}
	switch data[0] {
	case 'n':
		*s = Null()
		return nil
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Text(text)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = Text(strconv.FormatBool(b))
		return nil
	case '{', '[':
		return fmt.Errorf("nested value %s is not a scalar", string(data))
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Number(f)
	return nil
}

// Attributes is a free-form mapping of scalar values used for location,
// source and metadata.
type Attributes map[string]Scalar

// Clone returns an independent copy; a nil map clones to an empty one.
func (a Attributes) Clone() Attributes {
	clone := make(Attributes, len(a))
	for key, value := range a {
		clone[key] = value
	}
	return clone
}

// Text returns the text stored under key, if any.
func (a Attributes) Text(key string) (string, bool) {
	value, ok := a[key]
	if !ok {
		return "", false
	}
	return value.AsText()
}
