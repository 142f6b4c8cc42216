package dcql

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

// ParseQuery parses a DCQL query object, e.g. the dcql_query parameter of an
// OpenID4VP authorization request.
//
// Only the shape needed for matching is checked; a missing required member
// is reported as an error wrapping ErrMalformedQuery.
func ParseQuery(data []byte) (*Query, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return ParseQueryValue(v)
}

// ParseQueryValue is ParseQuery for an already parsed JSON value.
func ParseQueryValue(v *fastjson.Value) (*Query, error) {
	q, err := parseQuery(v)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return q, nil
}

func parseQuery(v *fastjson.Value) (*Query, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("query must be an object, got %s", v.Type())
	}

	credentials, err := requiredArray(v, "credentials")
	if err != nil {
		return nil, err
	}

	q := &Query{}
	for i, c := range credentials {
		cq, err := parseCredentialQuery(c)
		if err != nil {
			return nil, fmt.Errorf("credentials[%d]: %w", i, err)
		}
		q.CredentialQueries = append(q.CredentialQueries, cq)
	}

	if v.Exists("credential_sets") {
		sets, err := requiredArray(v, "credential_sets")
		if err != nil {
			return nil, err
		}
		for i, s := range sets {
			csq, err := parseCredentialSetQuery(s)
			if err != nil {
				return nil, fmt.Errorf("credential_sets[%d]: %w", i, err)
			}
			q.CredentialSetQueries = append(q.CredentialSetQueries, csq)
		}
	}
	return q, nil
}

func parseCredentialQuery(c *fastjson.Value) (*CredentialQuery, error) {
	id, err := requiredString(c, "id")
	if err != nil {
		return nil, err
	}
	format, err := requiredString(c, "format")
	if err != nil {
		return nil, err
	}
	meta := c.Get("meta")
	if meta == nil || meta.Type() != fastjson.TypeObject {
		return nil, errors.New("missing object member meta")
	}

	var docType string
	var vctValues []string
	switch format {
	case FormatMsoMdoc:
		if docType, err = requiredString(meta, "doctype_value"); err != nil {
			return nil, err
		}
	case FormatSDJWT:
		if vctValues, err = requiredStrings(meta, "vct_values"); err != nil {
			return nil, err
		}
	}

	rawClaims, err := requiredArray(c, "claims")
	if err != nil {
		return nil, err
	}
	if len(rawClaims) == 0 {
		return nil, errors.New("claims must not be empty")
	}
	claims := make([]*ClaimQuery, 0, len(rawClaims))
	for i, rc := range rawClaims {
		claim, err := parseClaim(rc)
		if err != nil {
			return nil, fmt.Errorf("claims[%d]: %w", i, err)
		}
		claims = append(claims, claim)
	}

	var claimSets []ClaimSet
	if c.Exists("claim_sets") {
		sets, err := requiredArray(c, "claim_sets")
		if err != nil {
			return nil, err
		}
		for i, s := range sets {
			ids, err := stringArray(s)
			if err != nil {
				return nil, fmt.Errorf("claim_sets[%d]: %w", i, err)
			}
			claimSets = append(claimSets, ClaimSet{ClaimIDs: ids})
		}
	}

	cq := NewCredentialQuery(id, format, claims, claimSets)
	cq.MdocDocType = docType
	cq.VCTValues = vctValues
	return cq, nil
}

func parseClaim(c *fastjson.Value) (*ClaimQuery, error) {
	if c.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("claim must be an object, got %s", c.Type())
	}
	claim := &ClaimQuery{}
	if c.Exists("id") {
		id, err := requiredString(c, "id")
		if err != nil {
			return nil, err
		}
		claim.ID = &id
	}

	path, err := requiredArray(c, "path")
	if err != nil {
		return nil, err
	}
	claim.Path = path

	if c.Exists("values") {
		values, err := requiredArray(c, "values")
		if err != nil {
			return nil, err
		}
		claim.Values = values
	}

	if retain := c.Get("intent_to_retain"); retain != nil {
		b, err := retain.Bool()
		if err != nil {
			return nil, fmt.Errorf("intent_to_retain: %v", err)
		}
		claim.IntentToRetain = &b
	}
	return claim, nil
}

func parseCredentialSetQuery(s *fastjson.Value) (*CredentialSetQuery, error) {
	if s.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("credential set must be an object, got %s", s.Type())
	}
	purpose := s.Get("purpose")
	if purpose == nil {
		return nil, fmt.Errorf("missing member purpose")
	}
	freeze(purpose)
	csq := &CredentialSetQuery{
		Purpose:  purpose,
		Required: true,
	}
	if required := s.Get("required"); required != nil {
		b, err := required.Bool()
		if err != nil {
			return nil, fmt.Errorf("required: %v", err)
		}
		csq.Required = b
	}

	options, err := requiredArray(s, "options")
	if err != nil {
		return nil, err
	}
	for i, o := range options {
		ids, err := stringArray(o)
		if err != nil {
			return nil, fmt.Errorf("options[%d]: %w", i, err)
		}
		csq.Options = append(csq.Options, CredentialSetOption{CredentialIDs: ids})
	}
	return csq, nil
}

func requiredString(v *fastjson.Value, key string) (string, error) {
	m := v.Get(key)
	if m == nil {
		return "", fmt.Errorf("missing member %s", key)
	}
	b, err := m.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%s: %v", key, err)
	}
	return string(b), nil
}

func requiredArray(v *fastjson.Value, key string) ([]*fastjson.Value, error) {
	m := v.Get(key)
	if m == nil {
		return nil, fmt.Errorf("missing member %s", key)
	}
	a, err := m.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %v", key, err)
	}
	return a, nil
}

func requiredStrings(v *fastjson.Value, key string) ([]string, error) {
	m := v.Get(key)
	if m == nil {
		return nil, fmt.Errorf("missing member %s", key)
	}
	return stringArray(m)
}

func stringArray(v *fastjson.Value) ([]string, error) {
	items, err := v.Array()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		b, err := item.StringBytes()
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, string(b))
	}
	return out, nil
}
