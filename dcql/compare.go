package dcql

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/valyala/fastjson"
)

// CBOR major types, RFC 8949 section 3.1.
const (
	cborMajorUint   = 0
	cborMajorNint   = 1
	cborMajorText   = 3
	cborMajorSimple = 7

	cborFalse = 0xf4
	cborTrue  = 0xf5
)

func matchesAnyValue(v MdocClaimValue, candidates []*fastjson.Value) (bool, error) {
	for _, candidate := range candidates {
		ok, err := mdocValueEquals(v, candidate)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// mdocValueEquals compares a CBOR data item with a scalar from a values
// array. Only text strings, booleans and integers can be compared.
// TODO: support more types once https://github.com/openid/OpenID4VP/issues/420 settles.
func mdocValueEquals(v MdocClaimValue, candidate *fastjson.Value) (bool, error) {
	if len(v.CBOR) == 0 {
		return false, fmt.Errorf("%w: empty data item", ErrUnsupportedValueComparison)
	}
	content, err := primitiveContent(candidate)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnsupportedValueComparison, err)
	}

	switch v.CBOR[0] >> 5 {
	case cborMajorText:
		var s string
		if err := cbor.Unmarshal(v.CBOR, &s); err != nil {
			return false, fmt.Errorf("failed to decode text value: %w", err)
		}
		return s == content, nil

	case cborMajorSimple:
		switch v.CBOR[0] {
		case cborFalse:
			return content == "false", nil
		case cborTrue:
			return content == "true", nil
		}

	case cborMajorUint:
		var n uint64
		if err := cbor.Unmarshal(v.CBOR, &n); err != nil {
			return false, fmt.Errorf("failed to decode unsigned value: %w", err)
		}
		c, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return false, nil
		}
		return n <= math.MaxInt64 && int64(n) == c, nil

	case cborMajorNint:
		var n int64
		if err := cbor.Unmarshal(v.CBOR, &n); err != nil {
			return false, fmt.Errorf("failed to decode negative value: %w", err)
		}
		c, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return false, nil
		}
		return n == c, nil
	}

	return false, fmt.Errorf("%w: cannot compare %s", ErrUnsupportedValueComparison, v)
}

// primitiveContent returns the textual content of a JSON scalar: strings
// unquoted, numbers as written, true, false and null as their literals.
func primitiveContent(v *fastjson.Value) (string, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse, fastjson.TypeNull:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected a JSON scalar, got %s", v.Type())
	}
}
