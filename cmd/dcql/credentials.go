package main

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/valyala/fastjson"

	"github.com/kokukuma/dcql-wallet/dcql"
	"github.com/kokukuma/dcql-wallet/mdoc"
	"github.com/kokukuma/dcql-wallet/sdjwt"
)

// canonical CBOR keeps map values stable in the printed output
var encMode, _ = cbor.CanonicalEncOptions().EncMode()

func loadCredentials(path string) ([]*dcql.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return parseCredentials(data)
}

// parseCredentials reads a JSON array of credential records. A record is one of
//
//	{"id", "docType", "claims": {namespace: {element: value}}}
//	{"id", "vct", "claims": {name: value}}
//	{"id", "sdjwt": "<compact SD-JWT>"}
//	{"id", "mdoc": "<base64url issuer-signed document>"}
//
// mdoc values are converted from JSON to CBOR; {"$date": "YYYY-MM-DD"} becomes
// a full-date (tag 1004).
func parseCredentials(data []byte) ([]*dcql.Credential, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	records, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("credentials must be an array: %w", err)
	}

	creds := make([]*dcql.Credential, 0, len(records))
	for i, r := range records {
		cred, err := parseCredential(r)
		if err != nil {
			return nil, fmt.Errorf("credentials[%d]: %w", i, err)
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

func parseCredential(r *fastjson.Value) (*dcql.Credential, error) {
	id := string(r.GetStringBytes("id"))
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}

	switch {
	case r.Exists("sdjwt"):
		token, err := sdjwt.Parse(string(r.GetStringBytes("sdjwt")))
		if err != nil {
			return nil, err
		}
		return token.Credential(id)

	case r.Exists("mdoc"):
		doc, err := mdoc.ParseDocumentBase64(string(r.GetStringBytes("mdoc")))
		if err != nil {
			return nil, err
		}
		return doc.Credential(id)

	case r.Exists("docType"):
		return parseMdocRecord(id, string(r.GetStringBytes("docType")), r.GetObject("claims"))

	case r.Exists("vct"):
		return parseJSONRecord(id, string(r.GetStringBytes("vct")), r.GetObject("claims"))
	}
	return nil, fmt.Errorf("record needs one of docType, vct, sdjwt or mdoc")
}

func parseMdocRecord(id, docType string, namespaces *fastjson.Object) (*dcql.Credential, error) {
	var claims []dcql.MdocClaim
	var firstErr error
	if namespaces != nil {
		namespaces.Visit(func(ns []byte, elements *fastjson.Value) {
			obj, err := elements.Object()
			if err != nil {
				firstErr = fmt.Errorf("namespace %s: %w", ns, err)
				return
			}
			obj.Visit(func(name []byte, value *fastjson.Value) {
				if firstErr != nil {
					return
				}
				cv, err := mdocValue(value)
				if err != nil {
					firstErr = fmt.Errorf("%s/%s: %w", ns, name, err)
					return
				}
				claims = append(claims, dcql.MdocClaim{
					Namespace:   string(ns),
					DataElement: string(name),
					Value:       cv,
				})
			})
		})
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return dcql.NewMdocCredential(id, docType, claims...)
}

func parseJSONRecord(id, vct string, obj *fastjson.Object) (*dcql.Credential, error) {
	var claims []dcql.JSONClaim
	if obj != nil {
		obj.Visit(func(name []byte, value *fastjson.Value) {
			claims = append(claims, dcql.JSONClaim{
				Name:  string(name),
				Value: dcql.JSONClaimValue{JSON: value},
			})
		})
	}
	return dcql.NewJSONCredential(id, vct, claims...)
}

func mdocValue(v *fastjson.Value) (dcql.MdocClaimValue, error) {
	item, err := toCBORItem(v)
	if err != nil {
		return dcql.MdocClaimValue{}, err
	}
	data, err := encMode.Marshal(item)
	if err != nil {
		return dcql.MdocClaimValue{}, err
	}
	return dcql.MdocClaimValueFromRaw(data)
}

func toCBORItem(v *fastjson.Value) (interface{}, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeArray:
		items := v.GetArray()
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			ci, err := toCBORItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ci)
		}
		return out, nil
	case fastjson.TypeObject:
		obj := v.GetObject()
		if date := obj.Get("$date"); date != nil && obj.Len() == 1 {
			s, err := date.StringBytes()
			if err != nil {
				return nil, fmt.Errorf("$date: %w", err)
			}
			return dcql.FullDate(string(s)), nil
		}
		out := map[string]interface{}{}
		var firstErr error
		obj.Visit(func(key []byte, value *fastjson.Value) {
			if firstErr != nil {
				return
			}
			ci, err := toCBORItem(value)
			if err != nil {
				firstErr = err
				return
			}
			out[string(key)] = ci
		})
		return out, firstErr
	}
	return nil, fmt.Errorf("unsupported JSON type %s", v.Type())
}
