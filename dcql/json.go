package dcql

import (
	"bytes"
	"encoding/json"

	"github.com/valyala/fastjson"
)

// freeze decodes v completely. fastjson unescapes strings and object keys on
// first access, so a value shared between goroutines must be frozen before
// it is read concurrently.
func freeze(v *fastjson.Value) {
	if v == nil {
		return
	}
	switch v.Type() {
	case fastjson.TypeObject:
		v.GetObject().Visit(func(_ []byte, item *fastjson.Value) {
			freeze(item)
		})
	case fastjson.TypeArray:
		for _, item := range v.GetArray() {
			freeze(item)
		}
	}
}

// appendJSON appends the compact JSON encoding of v to dst, keeping object
// keys in document order.
func appendJSON(dst []byte, v *fastjson.Value) []byte {
	if v == nil {
		return append(dst, "null"...)
	}
	switch v.Type() {
	case fastjson.TypeObject:
		dst = append(dst, '{')
		first := true
		v.GetObject().Visit(func(key []byte, item *fastjson.Value) {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendJSONString(dst, string(key))
			dst = append(dst, ':')
			dst = appendJSON(dst, item)
		})
		return append(dst, '}')
	case fastjson.TypeArray:
		dst = append(dst, '[')
		for i, item := range v.GetArray() {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSON(dst, item)
		}
		return append(dst, ']')
	case fastjson.TypeString:
		return appendJSONString(dst, string(v.GetStringBytes()))
	default:
		// numbers keep their literal text
		return v.MarshalTo(dst)
	}
}

// appendJSONString quotes s as a JSON string. fastjson falls back to Go
// quoting for strings with special characters, which is not valid JSON.
func appendJSONString(dst []byte, s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding a string cannot fail
	_ = enc.Encode(s)
	return append(dst, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))...)
}

func jsonString(v *fastjson.Value) string {
	return string(appendJSON(nil, v))
}
