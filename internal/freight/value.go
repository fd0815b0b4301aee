package freight

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

var errInvalidValue = errors.New("freight: invalid JSON value")

// Kind is the JSON kind a raw field arrived as.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindComposite // object or array
)

// Value is one untrusted raw field. Only string and number kinds carry usable
// data; every other kind coerces to nil.
type Value struct {
	Kind Kind
	Str  string  // string payload, or raw JSON text for bool/composite
	Num  float64 // number payload
}

// String wraps a string payload.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a numeric payload.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Null is an explicit JSON null.
func Null() Value { return Value{Kind: KindNull} }

// StringPtr wraps an optional string; nil becomes Null.
func StringPtr(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// NumberPtr wraps an optional number; nil becomes Null.
func NumberPtr(f *float64) Value {
	if f == nil {
		return Null()
	}
	return Number(*f)
}

// IsNil reports whether the field carries nothing at all.
func (v Value) IsNil() bool {
	return v.Kind == KindAbsent || v.Kind == KindNull
}

// ValueOf converts a parsed gjson result into a Value.
func ValueOf(r gjson.Result) Value {
	if !r.Exists() {
		return Value{}
	}
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		return Number(r.Num)
	case gjson.True, gjson.False:
		return Value{Kind: KindBool, Str: r.Raw}
	default:
		return Value{Kind: KindComposite, Str: r.Raw}
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errInvalidValue
	}
	*v = ValueOf(gjson.ParseBytes(b))
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case KindBool, KindComposite:
		if v.Str == "" {
			return []byte("null"), nil
		}
		return []byte(v.Str), nil
	default:
		return []byte("null"), nil
	}
}
