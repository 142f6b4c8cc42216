package dcql

import (
	"fmt"
)

// CredentialClaim is a claim held by a Credential: MdocClaim or JSONClaim.
type CredentialClaim interface {
	ClaimValue() ClaimValue

	isCredentialClaim()
}

// MdocClaim is a data element of an mdoc credential.
type MdocClaim struct {
	Namespace   string
	DataElement string
	Value       MdocClaimValue
}

// JSONClaim is a top-level claim of a JSON-based credential such as SD-JWT VC.
type JSONClaim struct {
	Name  string
	Value JSONClaimValue
}

func (c MdocClaim) ClaimValue() ClaimValue { return c.Value }
func (c JSONClaim) ClaimValue() ClaimValue { return c.Value }

func (MdocClaim) isCredentialClaim() {}
func (JSONClaim) isCredentialClaim() {}

// Credential is a holder credential as seen by the query engine. Exactly one of
// the mdoc doctype and the vct is set.
type Credential struct {
	id          string
	mdocDocType string
	vct         string
	claims      []CredentialClaim
}

// NewCredential validates that exactly one of mdocDocType and vct is set and
// that all claims match that mode.
func NewCredential(id, mdocDocType, vct string, claims []CredentialClaim) (*Credential, error) {
	switch {
	case mdocDocType != "" && vct != "":
		return nil, fmt.Errorf("%w: mdocDocType and vct cannot be set at the same time", ErrInvalidCredential)
	case mdocDocType == "" && vct == "":
		return nil, fmt.Errorf("%w: either mdocDocType or vct must be set", ErrInvalidCredential)
	}

	for i, c := range claims {
		switch c.(type) {
		case MdocClaim:
			if mdocDocType == "" {
				return nil, fmt.Errorf("%w: claim %d is an mdoc claim in a JSON-based credential", ErrInvalidCredential, i)
			}
		case JSONClaim:
			if vct == "" {
				return nil, fmt.Errorf("%w: claim %d is a JSON claim in an mdoc credential", ErrInvalidCredential, i)
			}
			freeze(c.(JSONClaim).Value.JSON)
		default:
			return nil, fmt.Errorf("%w: unexpected claim type %T", ErrInvalidCredential, c)
		}
	}

	cs := make([]CredentialClaim, len(claims))
	copy(cs, claims)
	return &Credential{
		id:          id,
		mdocDocType: mdocDocType,
		vct:         vct,
		claims:      cs,
	}, nil
}

// NewMdocCredential builds an mdoc credential. Claims keep the given order.
func NewMdocCredential(id, docType string, claims ...MdocClaim) (*Credential, error) {
	cs := make([]CredentialClaim, 0, len(claims))
	for _, c := range claims {
		cs = append(cs, c)
	}
	return NewCredential(id, docType, "", cs)
}

// NewJSONCredential builds a JSON-based credential. Claims keep the given order.
func NewJSONCredential(id, vct string, claims ...JSONClaim) (*Credential, error) {
	cs := make([]CredentialClaim, 0, len(claims))
	for _, c := range claims {
		cs = append(cs, c)
	}
	return NewCredential(id, "", vct, cs)
}

func (c *Credential) ID() string          { return c.id }
func (c *Credential) MdocDocType() string { return c.mdocDocType }
func (c *Credential) VCT() string         { return c.vct }
func (c *Credential) IsMdoc() bool        { return c.mdocDocType != "" }

// Claims returns a copy of the credential's claims in insertion order.
func (c *Credential) Claims() []CredentialClaim {
	cs := make([]CredentialClaim, len(c.claims))
	copy(cs, c.claims)
	return cs
}

// FindMatchingClaimValue resolves the claims path pointer of claim against the
// credential. ok is false when the path does not exist or, for mdoc, when the
// values constraint is not met. A non-nil error means the path or the
// constraint cannot be evaluated against this credential at all.
//
// See https://openid.net/specs/openid-4-verifiable-presentations-1_0.html#name-claims-path-pointer
func (c *Credential) FindMatchingClaimValue(claim *ClaimQuery) (ClaimValue, bool, error) {
	if c.IsMdoc() {
		return c.findMdocClaimValue(claim)
	}
	return c.findJSONClaimValue(claim)
}

func (c *Credential) findMdocClaimValue(claim *ClaimQuery) (ClaimValue, bool, error) {
	if len(claim.Path) != 2 {
		return nil, false, nil
	}
	namespace, err := primitiveContent(claim.Path[0])
	if err != nil {
		return nil, false, fmt.Errorf("%w: namespace: %v", ErrInvalidPath, err)
	}
	element, err := primitiveContent(claim.Path[1])
	if err != nil {
		return nil, false, fmt.Errorf("%w: data element: %v", ErrInvalidPath, err)
	}

	for _, cc := range c.claims {
		mc := cc.(MdocClaim)
		if mc.Namespace != namespace || mc.DataElement != element {
			continue
		}
		if claim.Values != nil {
			ok, err := matchesAnyValue(mc.Value, claim.Values)
			if err != nil {
				return nil, false, fmt.Errorf("%s/%s: %w", namespace, element, err)
			}
			if !ok {
				return nil, false, nil
			}
		}
		return mc.Value, true, nil
	}
	return nil, false, nil
}
