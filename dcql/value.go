package dcql

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/valyala/fastjson"
)

// tagFullDate is the CBOR tag for an RFC 3339 full-date string (RFC 8943).
const tagFullDate = 1004

// ClaimValue is the value of a credential claim. It is either an
// MdocClaimValue or a JSONClaimValue.
type ClaimValue interface {
	// String renders the value the way it appears in PrettyPrint.
	String() string
	Equal(other ClaimValue) bool

	isClaimValue()
}

// MdocClaimValue holds a single encoded CBOR data item.
type MdocClaimValue struct {
	CBOR cbor.RawMessage
}

// JSONClaimValue holds a JSON element of a JSON-based credential.
type JSONClaimValue struct {
	JSON *fastjson.Value
}

var (
	_ ClaimValue = MdocClaimValue{}
	_ ClaimValue = JSONClaimValue{}
)

func (MdocClaimValue) isClaimValue() {}
func (JSONClaimValue) isClaimValue() {}

// NewMdocClaimValue encodes v as CBOR.
func NewMdocClaimValue(v interface{}) (MdocClaimValue, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return MdocClaimValue{}, fmt.Errorf("failed to marshal claim value: %w", err)
	}
	return MdocClaimValue{CBOR: data}, nil
}

// MdocClaimValueFromRaw wraps an already encoded data item.
func MdocClaimValueFromRaw(data []byte) (MdocClaimValue, error) {
	if err := cbor.Wellformed(data); err != nil {
		return MdocClaimValue{}, fmt.Errorf("malformed cbor claim value: %w", err)
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return MdocClaimValue{CBOR: raw}, nil
}

func MustMdocClaimValue(v interface{}) MdocClaimValue {
	cv, err := NewMdocClaimValue(v)
	if err != nil {
		panic(err)
	}
	return cv
}

// FullDate returns a tag 1004 full-date item, e.g. for birth_date.
func FullDate(date string) cbor.Tag {
	return cbor.Tag{Number: tagFullDate, Content: date}
}

func (v MdocClaimValue) String() string {
	diag, err := cbor.Diagnose(v.CBOR)
	if err != nil {
		return fmt.Sprintf("h'%x'", []byte(v.CBOR))
	}
	return diag
}

func (v MdocClaimValue) Equal(other ClaimValue) bool {
	o, ok := other.(MdocClaimValue)
	if !ok {
		return false
	}
	return bytes.Equal(v.CBOR, o.CBOR)
}

// NewJSONClaimValue parses raw as a single JSON element.
func NewJSONClaimValue(raw string) (JSONClaimValue, error) {
	v, err := fastjson.Parse(raw)
	if err != nil {
		return JSONClaimValue{}, fmt.Errorf("failed to parse claim value: %w", err)
	}
	freeze(v)
	return JSONClaimValue{JSON: v}, nil
}

func MustJSONClaimValue(raw string) JSONClaimValue {
	cv, err := NewJSONClaimValue(raw)
	if err != nil {
		panic(err)
	}
	return cv
}

// String renders compact JSON, keeping object keys in document order.
func (v JSONClaimValue) String() string {
	return jsonString(v.JSON)
}

func (v JSONClaimValue) Equal(other ClaimValue) bool {
	o, ok := other.(JSONClaimValue)
	if !ok {
		return false
	}
	return jsonEqual(v.JSON, o.JSON)
}

// jsonEqual compares two JSON elements structurally. Object keys are compared
// as a set, array elements in order, numbers by their literal text.
func jsonEqual(a, b *fastjson.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Type() {
	case fastjson.TypeObject:
		ao, _ := a.Object()
		bo, _ := b.Object()
		if ao.Len() != bo.Len() {
			return false
		}
		equal := true
		ao.Visit(func(key []byte, av *fastjson.Value) {
			if !equal {
				return
			}
			equal = jsonEqual(av, bo.Get(string(key)))
		})
		return equal
	case fastjson.TypeArray:
		aa, _ := a.Array()
		ba, _ := b.Array()
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !jsonEqual(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case fastjson.TypeString:
		as, _ := a.StringBytes()
		bs, _ := b.StringBytes()
		return bytes.Equal(as, bs)
	case fastjson.TypeNumber:
		return a.String() == b.String()
	default:
		// null, true and false carry no payload beyond their type.
		return true
	}
}
