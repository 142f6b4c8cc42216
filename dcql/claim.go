package dcql

import (
	"strings"

	"github.com/valyala/fastjson"
)

// ClaimQuery is one entry of the claims array of a credential query.
type ClaimQuery struct {
	// ID is nil when the claim has no identifier. An empty string is a
	// valid identifier.
	ID *string

	// Path is the claims path pointer. Each component is a JSON string, a
	// non-negative integer or null.
	Path []*fastjson.Value

	// Values is nil when no values constraint is given.
	Values []*fastjson.Value

	// IntentToRetain is only meaningful for mdoc and is nil when absent.
	IntentToRetain *bool
}

// PathString renders the path as a compact JSON array, e.g. ["address","street_address"].
func (c *ClaimQuery) PathString() string {
	return jsonArrayString(c.Path)
}

func (c *ClaimQuery) print(pp *prettyPrinter) {
	if c.ID != nil {
		pp.line("id: " + *c.ID)
	}
	pp.line("path: " + c.PathString())
	if c.Values != nil {
		pp.line("values: " + jsonArrayString(c.Values))
	}
	if c.IntentToRetain != nil && *c.IntentToRetain {
		pp.line("mdocIntentToRetain: true")
	}
}

// ClaimSet is one acceptable combination of claim identifiers.
type ClaimSet struct {
	ClaimIDs []string
}

func (cs ClaimSet) print(pp *prettyPrinter) {
	pp.line("ids: " + listString(cs.ClaimIDs))
}

func jsonArrayString(values []*fastjson.Value) string {
	var b []byte
	b = append(b, '[')
	for i, v := range values {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSON(b, v)
	}
	b = append(b, ']')
	return string(b)
}

// listString renders a list of identifiers as "[a, b]".
func listString(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
