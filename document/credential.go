package document

import (
	"fmt"

	"github.com/kokukuma/dcql-wallet/mdoc"
)

type CredentialOption func(*Credential)

func WithRetention(retention int) CredentialOption {
	return func(c *Credential) {
		c.Retention = retention
	}
}

func WithLimitDisclosure(limitDisclosure LimitDisclosure) CredentialOption {
	return func(c *Credential) {
		c.LimitDisclosure = limitDisclosure
	}
}

func WithPurpose(purpose string) CredentialOption {
	return func(c *Credential) {
		c.Purpose = purpose
	}
}

func WithAlgorithms(algs ...string) CredentialOption {
	return func(c *Credential) {
		c.Alg = algs
	}
}

// WithClaimSets restricts the accepted claim combinations. Entries are claim
// ids as produced by the query builder.
func WithClaimSets(sets ...[]string) CredentialOption {
	return func(c *Credential) {
		c.ClaimSets = sets
	}
}

// ErrValidation is returned when credential validation fails
type ErrValidation struct {
	Field   string
	Message string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

var validElements = map[mdoc.NameSpace]map[mdoc.ElementIdentifier]bool{
	ISO1801351: {
		IsoFamilyName: true, IsoGivenName: true, IsoBirthDate: true,
		IsoIssueDate: true, IsoExpiryDate: true, IsoIssuingCountry: true,
		IsoIssuingAuthority: true, IsoDocumentNumber: true, IsoPortrait: true,
		IsoDrivingPrivileges: true, IsoUnDistinguishingSign: true,
		IsoAdministrativeNumber: true, IsoSex: true, IsoHeight: true,
		IsoWeight: true, IsoEyeColour: true, IsoHairColour: true,
		IsoBirthPlace: true, IsoResidentAddress: true, IsoPortraitCaptureDate: true,
		IsoAgeInYears: true, IsoAgeBirthYear: true, IsoIssuingJurisdiction: true,
		IsoNationality: true, IsoResidentCity: true, IsoResidentState: true,
		IsoResidentPostalCode: true, IsoResidentCountry: true,
		IsoFamilyNameNationalCharacter: true, IsoGivenNameNationalCharacter: true,
		IsoSignatureUsualMark: true,
	},
	EUDIPID1: {
		EudiFamilyName: true, EudiGivenName: true, EudiBirthDate: true,
		EudiAgeOver18: true, EudiAgeInYears: true, EudiAgeBirthYear: true,
		EudiGivenNameBirth: true, EudiBirthPlace: true, EudiBirthCountry: true,
		EudiBirthState: true, EudiBirthCity: true, EudiResidentAddress: true,
		EudiResidentCountry: true, EudiResidentState: true, EudiResidentCity: true,
		EudiResidentPostalCode: true, EudiResidentStreet: true, EudiResidentHouseNumber: true,
		EudiGender: true, EudiNationality: true, EudiIssuanceDate: true,
		EudiExpiryDate: true, EudiIssuingAuthority: true, EudiDocumentNumber: true,
		EudiAdministrativeNumber: true, EudiIssuingCountry: true, EudiIssuingJurisdiction: true,
	},
}

// IsValidElementForNamespace checks if an element identifier is valid for a given namespace.
// age_over_NN is accepted in the ISO namespace.
func IsValidElementForNamespace(namespace mdoc.NameSpace, element mdoc.ElementIdentifier) bool {
	if namespace == ISO1801351 && isAgeOver(element) {
		return true
	}
	return validElements[namespace][element]
}

func isAgeOver(element mdoc.ElementIdentifier) bool {
	var age int
	n, err := fmt.Sscanf(string(element), "age_over_%d", &age)
	if err != nil || n != 1 {
		return false
	}
	want, err := AgeOver(age)
	return err == nil && want == element
}

// IsValidDocTypeNamespace checks if a docType and namespace combination is valid
func IsValidDocTypeNamespace(docType mdoc.DocType, namespace mdoc.NameSpace) bool {
	validCombinations := map[mdoc.DocType]mdoc.NameSpace{
		IsoMDL:  ISO1801351,
		EudiPid: EUDIPID1,
	}

	expectedNamespace, exists := validCombinations[docType]
	if !exists {
		return false
	}

	return expectedNamespace == namespace
}

// SupportedAlgorithms returns a map of supported signing algorithms
func SupportedAlgorithms() map[string]bool {
	return map[string]bool{
		"ES256": true,
		"ES384": true,
		"ES512": true,
		"PS256": true,
		"PS384": true,
		"PS512": true,
		"RS256": true,
		"RS384": true,
		"RS512": true,
	}
}

// NewCredential describes an mdoc credential to request.
func NewCredential(
	id string,
	docType mdoc.DocType,
	namespace mdoc.NameSpace,
	elements []mdoc.ElementIdentifier,
	opts ...CredentialOption,
) (*Credential, error) {
	if len(elements) == 0 {
		return nil, &ErrValidation{Field: "elements", Message: "must contain at least one element"}
	}

	if !IsValidDocTypeNamespace(docType, namespace) {
		return nil, &ErrValidation{
			Field:   "docType+namespace",
			Message: fmt.Sprintf("invalid combination: docType=%s, namespace=%s", docType, namespace),
		}
	}

	for _, element := range elements {
		if !IsValidElementForNamespace(namespace, element) {
			return nil, &ErrValidation{
				Field:   "elementIdentifier",
				Message: fmt.Sprintf("invalid element %s for namespace %s", element, namespace),
			}
		}
	}

	cred := Credential{
		ID:                id,
		DocType:           docType,
		Namespace:         namespace,
		ElementIdentifier: elements,
	}
	return newCredential(cred, opts)
}

// NewSDJWTCredential describes an SD-JWT VC to request. Each path is a claims
// path pointer of strings, non-negative ints and nil.
func NewSDJWTCredential(id string, vcts []string, paths [][]interface{}, opts ...CredentialOption) (*Credential, error) {
	if len(vcts) == 0 {
		return nil, &ErrValidation{Field: "vct", Message: "must contain at least one vct"}
	}
	if len(paths) == 0 {
		return nil, &ErrValidation{Field: "paths", Message: "must contain at least one path"}
	}
	for _, path := range paths {
		if err := validatePath(path); err != nil {
			return nil, err
		}
	}

	cred := Credential{
		ID:         id,
		VCTValues:  vcts,
		ClaimPaths: paths,
	}
	return newCredential(cred, opts)
}

func validatePath(path []interface{}) error {
	if len(path) == 0 {
		return &ErrValidation{Field: "path", Message: "cannot be empty"}
	}
	for _, c := range path {
		switch v := c.(type) {
		case string, nil:
		case int:
			if v < 0 {
				return &ErrValidation{Field: "path", Message: fmt.Sprintf("negative index %d", v)}
			}
		default:
			return &ErrValidation{Field: "path", Message: fmt.Sprintf("unsupported component %v (%T)", c, c)}
		}
	}
	return nil
}

func newCredential(cred Credential, opts []CredentialOption) (*Credential, error) {
	if cred.ID == "" {
		return nil, &ErrValidation{Field: "id", Message: "cannot be empty"}
	}

	// credential with default
	cred.LimitDisclosure = LimitDisclosurePreferred
	cred.Alg = []string{"ES256"}

	for _, opt := range opts {
		opt(&cred)
	}

	if cred.LimitDisclosure != LimitDisclosureRequired && cred.LimitDisclosure != LimitDisclosurePreferred {
		return nil, &ErrValidation{
			Field:   "limitDisclosure",
			Message: fmt.Sprintf("unsupported value: %s", cred.LimitDisclosure),
		}
	}

	supportedAlgs := SupportedAlgorithms()
	for _, alg := range cred.Alg {
		if !supportedAlgs[alg] {
			return nil, &ErrValidation{
				Field:   "alg",
				Message: fmt.Sprintf("unsupported algorithm: %s", alg),
			}
		}
	}

	if cred.Retention < 0 {
		return nil, &ErrValidation{Field: "retention", Message: "must be non-negative"}
	}

	ids := map[string]bool{}
	for _, claim := range cred.claims() {
		ids[claim.ID] = true
	}
	for _, set := range cred.ClaimSets {
		if len(set) == 0 {
			return nil, &ErrValidation{Field: "claimSets", Message: "claim set cannot be empty"}
		}
		for _, id := range set {
			if !ids[id] {
				return nil, &ErrValidation{Field: "claimSets", Message: fmt.Sprintf("unknown claim id %s", id)}
			}
		}
	}

	return &cred, nil
}

type CredentialRequirement struct {
	CredentialType CredentialType
	Credentials    []Credential
}

type Credential struct {
	ID string

	// mso_mdoc
	DocType           mdoc.DocType
	Namespace         mdoc.NameSpace
	ElementIdentifier []mdoc.ElementIdentifier

	// dc+sd-jwt
	VCTValues  []string
	ClaimPaths [][]interface{}

	ClaimSets       [][]string
	Retention       int
	LimitDisclosure LimitDisclosure
	Purpose         string
	Alg             []string
}

type CredentialType string

type LimitDisclosure string

const (
	// ISO/IEC 18013-5 mobile Driving License
	CredentialTypeMDOC CredentialType = "mso_mdoc"

	// SD-JWT based Verifiable Credentials
	CredentialTypeSDJWT CredentialType = "dc+sd-jwt"

	// LimitDisclosure
	LimitDisclosureRequired  LimitDisclosure = "required"
	LimitDisclosurePreferred LimitDisclosure = "preferred"
)

// claims builds the claim queries of c. mdoc claims are keyed ns_element,
// SD-JWT claims by their path joined with '.'.
func (c Credential) claims() []ClaimQuery {
	var claims []ClaimQuery
	if len(c.ElementIdentifier) > 0 {
		for _, elem := range c.ElementIdentifier {
			claims = append(claims, ClaimQuery{
				ID:             fmt.Sprintf("%s_%s", c.Namespace, elem),
				Path:           []interface{}{string(c.Namespace), string(elem)},
				IntentToRetain: intentToRetain(c.Retention),
			})
		}
		return claims
	}
	for _, path := range c.ClaimPaths {
		claims = append(claims, ClaimQuery{
			ID:   pathID(path),
			Path: path,
		})
	}
	return claims
}

func pathID(path []interface{}) string {
	id := ""
	for i, p := range path {
		if i > 0 {
			id += "."
		}
		switch v := p.(type) {
		case nil:
			id += "*"
		default:
			id += fmt.Sprint(v)
		}
	}
	return id
}

func (c CredentialRequirement) DCQLQuery() DCQLQuery {
	query := DCQLQuery{
		Credentials: make([]CredentialQuery, 0, len(c.Credentials)),
	}

	credentialIDs := make([]string, 0, len(c.Credentials))

	for _, cred := range c.Credentials {
		credentialIDs = append(credentialIDs, cred.ID)

		meta := &MetaConstraints{
			Additional: map[string]interface{}{
				"alg": cred.Alg,
			},
		}
		switch c.CredentialType {
		case CredentialTypeSDJWT:
			meta.VCTValues = cred.VCTValues
		default:
			meta.DocType = string(cred.DocType)
		}
		if cred.LimitDisclosure != "" {
			meta.Additional["limit_disclosure"] = cred.LimitDisclosure
		}

		query.Credentials = append(query.Credentials, CredentialQuery{
			ID:        cred.ID,
			Format:    string(c.CredentialType),
			Meta:      meta,
			Claims:    cred.claims(),
			ClaimSets: cred.ClaimSets,
		})
	}

	// first credential with a purpose wins
	var purpose string
	for _, cred := range c.Credentials {
		if cred.Purpose != "" {
			purpose = cred.Purpose
			break
		}
	}

	if len(credentialIDs) > 0 && purpose != "" {
		query.CredentialSets = append(query.CredentialSets, CredentialSetQuery{
			Options:  [][]string{credentialIDs},
			Required: ptr(true),
			Purpose:  purpose,
		})
	}

	return query
}

// intentToRetain is nil unless the credential is kept for some days.
func intentToRetain(retainDay int) *bool {
	if retainDay <= 0 {
		return nil
	}
	return ptr(true)
}
