package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kokukuma/dcql-wallet/dcql"
)

type MatchResponse struct {
	Responses json.RawMessage `json:"responses"`
	Text      string          `json:"text"`
}

// Match evaluates a DCQL query against the wallet. The body is either the
// query itself or an authorization request carrying it in dcql_query, as an
// object or as a JSON encoded string.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := readBody(r)
	if err != nil {
		s.metrics.IncrementMatch(resultMalformed)
		s.jsonErrorResponse(w, fmt.Errorf("failed to read request: %v", err), http.StatusBadRequest)
		return
	}

	query, err := extractQuery(body)
	if err != nil {
		s.metrics.IncrementMatch(resultMalformed)
		s.jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	responses, err := s.wallet.Match(r.Context(), query)
	s.metrics.MatchDuration.Observe(since(start))

	var cqe *dcql.CredentialQueryError
	switch {
	case errors.As(err, &cqe):
		s.metrics.IncrementMatch(resultNoMatch)
		s.jsonErrorResponse(w, cqe, http.StatusNotFound)
		return
	case err != nil:
		s.metrics.IncrementMatch(resultError)
		s.jsonErrorResponse(w, fmt.Errorf("failed to evaluate query: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.IncrementMatch(resultMatched)
	s.logger.Info("dcql query matched",
		zap.Int("credential_queries", len(query.CredentialQueries)),
		zap.Int("responses", len(responses)))
	s.jsonResponse(w, MatchResponse{
		Responses: dcql.MarshalResponses(responses),
		Text:      dcql.PrettyPrint(responses),
	}, http.StatusOK)
}

func extractQuery(body []byte) (*dcql.Query, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: request body is not valid JSON", dcql.ErrMalformedQuery)
	}
	q := gjson.GetBytes(body, "dcql_query")
	switch {
	case !q.Exists():
		return dcql.ParseQuery(body)
	case q.Type == gjson.String:
		return dcql.ParseQuery([]byte(q.Str))
	default:
		return dcql.ParseQuery([]byte(q.Raw))
	}
}
