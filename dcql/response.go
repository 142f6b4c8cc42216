package dcql

import (
	"strconv"

	"github.com/valyala/fastjson"
)

// MatchedClaim pairs a requested claim with the value found in a credential.
type MatchedClaim struct {
	Claim *ClaimQuery
	Value ClaimValue
}

// CredentialResponseMatch is one credential satisfying a credential query.
// ClaimValues are in the order the claims were evaluated.
type CredentialResponseMatch struct {
	Credential  *Credential
	ClaimValues []MatchedClaim
}

// CredentialResponse holds the matches for one credential query.
// CredentialSetQuery is set when the response was selected through a
// credential set query.
type CredentialResponse struct {
	CredentialQuery    *CredentialQuery
	CredentialSetQuery *CredentialSetQuery
	Matches            []CredentialResponseMatch
}

func (r CredentialResponse) print(pp *prettyPrinter) {
	pp.line("response:")
	pp.pushIndent()
	pp.line("credentialQuery:")
	pp.pushIndent()
	pp.line("id: " + r.CredentialQuery.ID)
	pp.popIndent()
	if r.CredentialSetQuery != nil {
		pp.line("credentialSetQuery:")
		pp.pushIndent()
		pp.line("purpose: " + r.CredentialSetQuery.PurposeString())
		pp.line("required: " + strconv.FormatBool(r.CredentialSetQuery.Required))
		pp.popIndent()
	}
	pp.line("matches:")
	pp.pushIndent()
	if len(r.Matches) == 0 {
		pp.line("<empty>")
	}
	for _, m := range r.Matches {
		pp.line("match:")
		pp.pushIndent()
		pp.line("credential: " + m.Credential.ID())
		pp.line("claims:")
		pp.pushIndent()
		for _, cv := range m.ClaimValues {
			pp.line("claim:")
			pp.pushIndent()
			pp.line("path: " + cv.Claim.PathString())
			pp.line("value: " + cv.Value.String())
			pp.popIndent()
		}
		pp.popIndent()
		pp.popIndent()
	}
	pp.popIndent()
	pp.popIndent()
}

// PrettyPrint renders responses as indented text. The output is stable and
// is used as the expected value in tests.
func PrettyPrint(responses []CredentialResponse) string {
	pp := &prettyPrinter{}
	pp.line("responses:")
	pp.pushIndent()
	if len(responses) == 0 {
		pp.line("<empty>")
	}
	for _, r := range responses {
		r.print(pp)
	}
	pp.popIndent()
	return pp.String()
}

// MarshalResponses renders responses as JSON. JSON claim values are embedded
// as is; mdoc values are given in CBOR diagnostic notation.
func MarshalResponses(responses []CredentialResponse) []byte {
	a := &fastjson.Arena{}
	out := a.NewArray()
	for i, r := range responses {
		resp := a.NewObject()
		resp.Set("credential_query_id", a.NewString(r.CredentialQuery.ID))
		if csq := r.CredentialSetQuery; csq != nil {
			set := a.NewObject()
			if csq.Purpose != nil {
				set.Set("purpose", csq.Purpose)
			} else {
				set.Set("purpose", a.NewNull())
			}
			set.Set("required", boolValue(a, csq.Required))
			resp.Set("credential_set", set)
		}

		matches := a.NewArray()
		for j, m := range r.Matches {
			match := a.NewObject()
			match.Set("credential_id", a.NewString(m.Credential.ID()))
			claims := a.NewArray()
			for k, cv := range m.ClaimValues {
				claim := a.NewObject()
				path := a.NewArray()
				for l, p := range cv.Claim.Path {
					path.SetArrayItem(l, p)
				}
				claim.Set("path", path)
				switch v := cv.Value.(type) {
				case JSONClaimValue:
					claim.Set("value", v.JSON)
				case MdocClaimValue:
					claim.Set("cbor", a.NewString(v.String()))
				}
				claims.SetArrayItem(k, claim)
			}
			match.Set("claims", claims)
			matches.SetArrayItem(j, match)
		}
		resp.Set("matches", matches)
		out.SetArrayItem(i, resp)
	}
	return appendJSON(nil, out)
}

func boolValue(a *fastjson.Arena, b bool) *fastjson.Value {
	if b {
		return a.NewTrue()
	}
	return a.NewFalse()
}
