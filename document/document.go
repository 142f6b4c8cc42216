package document

import (
	"fmt"
	"sort"

	"github.com/kokukuma/dcql-wallet/mdoc"
)

type Elements map[mdoc.DocType]map[mdoc.NameSpace][]mdoc.ElementIdentifier

// DCQLQuery requests every listed element, one credential query per doctype.
// Doctypes and namespaces are emitted in lexical order so the query is
// stable; elements keep the given order.
func (d Elements) DCQLQuery(purpose string) DCQLQuery {
	query := DCQLQuery{
		Credentials: make([]CredentialQuery, 0, len(d)),
	}

	docTypes := make([]string, 0, len(d))
	for docType := range d {
		docTypes = append(docTypes, string(docType))
	}
	sort.Strings(docTypes)

	for _, docType := range docTypes {
		namespaces := d[mdoc.DocType(docType)]
		nss := make([]string, 0, len(namespaces))
		for ns := range namespaces {
			nss = append(nss, string(ns))
		}
		sort.Strings(nss)

		var claims []ClaimQuery
		for _, ns := range nss {
			for _, elem := range namespaces[mdoc.NameSpace(ns)] {
				claims = append(claims, ClaimQuery{
					ID:   fmt.Sprintf("%s_%s", ns, elem),
					Path: []interface{}{ns, string(elem)},
				})
			}
		}

		query.Credentials = append(query.Credentials, CredentialQuery{
			ID:     docType,
			Format: string(CredentialTypeMDOC),
			Meta: &MetaConstraints{
				DocType: docType,
			},
			Claims: claims,
		})
	}

	// a credential set needs a purpose; without one every credential is
	// required anyway
	if len(docTypes) > 0 && purpose != "" {
		query.CredentialSets = []CredentialSetQuery{{
			Options:  [][]string{docTypes},
			Required: ptr(true),
			Purpose:  purpose,
		}}
	}
	return query
}
