package dcql

const (
	FormatMsoMdoc = "mso_mdoc"
	FormatSDJWT   = "dc+sd-jwt"
)

// CredentialQuery requests a single credential.
type CredentialQuery struct {
	ID     string
	Format string

	// MdocDocType is set for FormatMsoMdoc.
	MdocDocType string
	// VCTValues is set for FormatSDJWT.
	VCTValues []string

	Claims    []*ClaimQuery
	ClaimSets []ClaimSet

	claimsByID map[string]*ClaimQuery
}

// NewCredentialQuery indexes claims by identifier. When two claims share an
// identifier the later one wins. Path and values are decoded up front so that
// the query can be executed from several goroutines.
func NewCredentialQuery(id, format string, claims []*ClaimQuery, claimSets []ClaimSet) *CredentialQuery {
	cq := &CredentialQuery{
		ID:         id,
		Format:     format,
		Claims:     claims,
		ClaimSets:  claimSets,
		claimsByID: make(map[string]*ClaimQuery),
	}
	for _, c := range claims {
		for _, p := range c.Path {
			freeze(p)
		}
		for _, v := range c.Values {
			freeze(v)
		}
		if c.ID != nil {
			cq.claimsByID[*c.ID] = c
		}
	}
	return cq
}

// ClaimByID returns the claim with the given identifier.
func (cq *CredentialQuery) ClaimByID(id string) (*ClaimQuery, bool) {
	c, ok := cq.claimsByID[id]
	return c, ok
}

func (cq *CredentialQuery) print(pp *prettyPrinter) {
	pp.line("id: " + cq.ID)
	pp.line("format: " + cq.Format)
	if cq.MdocDocType != "" {
		pp.line("mdocDocType: " + cq.MdocDocType)
	}
	if cq.VCTValues != nil {
		pp.line("vctValues: " + listString(cq.VCTValues))
	}
	pp.line("claims:")
	pp.pushIndent()
	for _, c := range cq.Claims {
		pp.line("claim:")
		pp.pushIndent()
		c.print(pp)
		pp.popIndent()
	}
	pp.popIndent()
	pp.line("claimSets:")
	pp.pushIndent()
	if len(cq.ClaimSets) == 0 {
		pp.line("<empty>")
	}
	for _, cs := range cq.ClaimSets {
		pp.line("claimset:")
		pp.pushIndent()
		cs.print(pp)
		pp.popIndent()
	}
	pp.popIndent()
}
