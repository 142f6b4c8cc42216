package dcql

import (
	"strconv"

	"github.com/valyala/fastjson"
)

// CredentialSetOption is one acceptable combination of credential query ids.
type CredentialSetOption struct {
	CredentialIDs []string
}

// IsSatisfied reports whether every referenced credential query has at least
// one match in responses.
func (o CredentialSetOption) IsSatisfied(responses []CredentialResponse) bool {
	for _, id := range o.CredentialIDs {
		if _, ok := findResponse(responses, id); !ok {
			return false
		}
	}
	return true
}

func findResponse(responses []CredentialResponse, id string) (CredentialResponse, bool) {
	for _, r := range responses {
		if r.CredentialQuery.ID == id && len(r.Matches) > 0 {
			return r, true
		}
	}
	return CredentialResponse{}, false
}

// CredentialSetQuery groups credential queries into alternatives.
type CredentialSetQuery struct {
	// Purpose is an opaque display value, passed through as is.
	Purpose  *fastjson.Value
	Required bool
	Options  []CredentialSetOption
}

// PurposeString renders the purpose as compact JSON.
func (csq *CredentialSetQuery) PurposeString() string {
	return jsonString(csq.Purpose)
}

func (csq *CredentialSetQuery) print(pp *prettyPrinter) {
	pp.line("purpose: " + csq.PurposeString())
	pp.line("required: " + strconv.FormatBool(csq.Required))
	pp.line("options:")
	pp.pushIndent()
	for _, o := range csq.Options {
		pp.line(listString(o.CredentialIDs))
	}
	pp.popIndent()
}
