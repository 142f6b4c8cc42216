package sdjwt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/kokukuma/dcql-wallet/pkg/hash"
)

const defaultSDAlg = "sha-256"

// Disclosure is a single decoded disclosure.
type Disclosure struct {
	Raw    string
	Salt   string
	Name   string // empty for array element disclosures
	Value  *fastjson.Value
	Digest string

	IsArrayEntry bool
}

func parseDisclosure(raw, sdAlg string) (*Disclosure, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("base64url decode: %w", err)
	}

	v, err := fastjson.ParseBytes(decoded)
	if err != nil {
		return nil, fmt.Errorf("JSON decode: %w", err)
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("disclosure is not an array: %w", err)
	}

	if len(arr) != 2 && len(arr) != 3 {
		return nil, fmt.Errorf("unexpected disclosure array length: %d", len(arr))
	}

	digest, err := DigestDisclosure(raw, sdAlg)
	if err != nil {
		return nil, err
	}

	disc := &Disclosure{Raw: raw, Digest: digest}

	salt, err := arr[0].StringBytes()
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	disc.Salt = string(salt)

	if len(arr) == 3 {
		name, err := arr[1].StringBytes()
		if err != nil {
			return nil, fmt.Errorf("claim name: %w", err)
		}
		disc.Name = string(name)
		if disc.Name == sdKey || disc.Name == "..." {
			return nil, fmt.Errorf("reserved claim name %q", disc.Name)
		}
		disc.Value = arr[2]
	} else {
		disc.Value = arr[1]
		disc.IsArrayEntry = true
	}
	return disc, nil
}

// DigestDisclosure returns the base64url digest of an encoded disclosure.
func DigestDisclosure(raw, sdAlg string) (string, error) {
	sum, err := hash.Digest([]byte(raw), sdAlg)
	if err != nil {
		return "", fmt.Errorf("unsupported _sd_alg: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// EncodeDisclosure encodes an object property disclosure, or an array element
// disclosure when name is empty.
func EncodeDisclosure(salt, name string, value interface{}) (string, error) {
	arr := []interface{}{salt, name, value}
	if name == "" {
		arr = []interface{}{salt, value}
	}
	data, err := json.Marshal(arr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal disclosure: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}
