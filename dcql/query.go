// Package dcql evaluates Digital Credentials Query Language queries
// (OpenID4VP section 6) against a set of holder credentials.
//
// Matching is strictly in declaration order: credentials are scanned in the
// order given, the first satisfiable claim set wins per credential, and the
// first satisfiable option wins per credential set query. There is no
// scoring.
package dcql

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Query is a parsed DCQL query.
type Query struct {
	CredentialQueries    []*CredentialQuery
	CredentialSetQueries []*CredentialSetQuery
}

type executeOptions struct {
	logger *zap.Logger
}

type ExecuteOption func(*executeOptions)

// WithLogger traces matching decisions at debug level.
func WithLogger(logger *zap.Logger) ExecuteOption {
	return func(o *executeOptions) {
		o.logger = logger
	}
}

// Execute matches credentials against the query.
//
// Without credential set queries every credential query is required, and the
// result holds one response per credential query. With credential set
// queries, the result holds only the responses selected by the first
// satisfied option of each credential set query.
//
// A *CredentialQueryError is returned for the first required query or
// credential set that cannot be satisfied. Other errors mean the query could
// not be evaluated against the credentials.
func (q *Query) Execute(credentials []*Credential, opts ...ExecuteOption) ([]CredentialResponse, error) {
	o := executeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	responses := make([]CredentialResponse, 0, len(q.CredentialQueries))
	for _, cq := range q.CredentialQueries {
		matches, err := matchCredentialQuery(cq, credentials, logger)
		if err != nil {
			return nil, fmt.Errorf("credential query %s: %w", cq.ID, err)
		}
		responses = append(responses, CredentialResponse{
			CredentialQuery: cq,
			Matches:         matches,
		})
	}

	// OpenID4VP 6.3.1.2: without credential_sets all credentials are requested.
	if len(q.CredentialSetQueries) == 0 {
		for _, r := range responses {
			if len(r.Matches) == 0 {
				return nil, noMatchesForQuery(r.CredentialQuery.ID)
			}
		}
		return responses, nil
	}

	// Otherwise every required credential set must be satisfied, the others
	// contribute when they can.
	var selected []CredentialResponse
	for _, csq := range q.CredentialSetQueries {
		satisfied := false
		for _, option := range csq.Options {
			if !option.IsSatisfied(responses) {
				continue
			}
			for _, id := range option.CredentialIDs {
				r, _ := findResponse(responses, id)
				selected = append(selected, CredentialResponse{
					CredentialQuery:    r.CredentialQuery,
					CredentialSetQuery: csq,
					Matches:            r.Matches,
				})
			}
			satisfied = true
			break
		}
		if satisfied {
			continue
		}
		if csq.Required {
			return nil, noMatchesForCredentialSet(csq.PurposeString())
		}
		logger.Debug("skipping optional credential set", zap.String("purpose", csq.PurposeString()))
	}
	return selected, nil
}

func matchCredentialQuery(cq *CredentialQuery, credentials []*Credential, logger *zap.Logger) ([]CredentialResponseMatch, error) {
	var matches []CredentialResponseMatch
	for _, cred := range satisfyingMeta(cq, credentials) {
		claimValues, ok, err := matchCredential(cq, cred)
		if err != nil {
			return nil, fmt.Errorf("credential %s: %w", cred.ID(), err)
		}
		if !ok {
			logger.Debug("credential skipped: required claims not found",
				zap.String("query_id", cq.ID), zap.String("credential_id", cred.ID()))
			continue
		}
		logger.Debug("credential matched",
			zap.String("query_id", cq.ID), zap.String("credential_id", cred.ID()), zap.Int("claims", len(claimValues)))
		matches = append(matches, CredentialResponseMatch{
			Credential:  cred,
			ClaimValues: claimValues,
		})
	}
	return matches, nil
}

func satisfyingMeta(cq *CredentialQuery, credentials []*Credential) []*Credential {
	switch cq.Format {
	case FormatMsoMdoc:
		return lo.Filter(credentials, func(c *Credential, _ int) bool {
			return c.IsMdoc() && c.MdocDocType() == cq.MdocDocType
		})
	case FormatSDJWT:
		return lo.Filter(credentials, func(c *Credential, _ int) bool {
			return !c.IsMdoc() && lo.Contains(cq.VCTValues, c.VCT())
		})
	default:
		return nil
	}
}

// matchCredential resolves the claims of cq against cred. Without claim sets
// all claims are required; with claim sets the first set whose claims all
// resolve is used.
func matchCredential(cq *CredentialQuery, cred *Credential) ([]MatchedClaim, bool, error) {
	if len(cq.ClaimSets) == 0 {
		return resolveClaims(cred, cq.Claims)
	}

	for _, cs := range cq.ClaimSets {
		claims := make([]*ClaimQuery, 0, len(cs.ClaimIDs))
		known := true
		for _, id := range cs.ClaimIDs {
			c, ok := cq.ClaimByID(id)
			if !ok {
				known = false
				break
			}
			claims = append(claims, c)
		}
		if !known {
			continue
		}

		claimValues, ok, err := resolveClaims(cred, claims)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return claimValues, true, nil
		}
	}
	return nil, false, nil
}

// resolveClaims stops at the first claim that does not resolve.
func resolveClaims(cred *Credential, claims []*ClaimQuery) ([]MatchedClaim, bool, error) {
	claimValues := make([]MatchedClaim, 0, len(claims))
	for _, c := range claims {
		v, ok, err := cred.FindMatchingClaimValue(c)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		claimValues = append(claimValues, MatchedClaim{Claim: c, Value: v})
	}
	return claimValues, true, nil
}

// String renders the query as indented text.
func (q *Query) String() string {
	pp := &prettyPrinter{}
	pp.line("credentials:")
	pp.pushIndent()
	for _, cq := range q.CredentialQueries {
		pp.line("credential:")
		pp.pushIndent()
		cq.print(pp)
		pp.popIndent()
	}
	pp.popIndent()

	pp.line("credentialSets:")
	pp.pushIndent()
	if len(q.CredentialSetQueries) == 0 {
		pp.line("<empty>")
	}
	for _, csq := range q.CredentialSetQueries {
		pp.line("credentialSet:")
		pp.pushIndent()
		csq.print(pp)
		pp.popIndent()
	}
	pp.popIndent()
	return pp.String()
}
