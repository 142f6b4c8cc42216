// Package sdjwt decodes SD-JWT VCs (IETF draft-ietf-oauth-sd-jwt-vc) into the
// claim list used by the dcql engine. Selective disclosures are resolved
// against the _sd digests of the issuer-signed JWT; undisclosed claims are
// dropped. Parse does not check signatures, use Verify for that.
package sdjwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fastjson"

	"github.com/kokukuma/dcql-wallet/dcql"
)

const (
	separator = "~"

	sdKey    = "_sd"
	sdAlgKey = "_sd_alg"
	vctKey   = "vct"

	keyBindingType = "kb+jwt"
)

var (
	ErrInvalidSDJWT = errors.New("invalid SD-JWT")
	ErrMissingVCT   = errors.New("missing vct claim")
)

// Token is a parsed SD-JWT.
type Token struct {
	Raw string
	// JWT is the issuer-signed JWT.
	JWT         string
	Header      map[string]interface{}
	Payload     *fastjson.Value
	Disclosures []Disclosure
	// KeyBindingJWT is empty when the presentation carries none.
	KeyBindingJWT string

	claims *fastjson.Value
}

// Parse splits and decodes an SD-JWT in compact serialization.
func Parse(raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, separator)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: no JWT part found", ErrInvalidSDJWT)
	}

	parser := jwt.NewParser()
	header, payload, err := decodeJWT(parser, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSDJWT, err)
	}
	if payload.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidSDJWT)
	}

	token := &Token{
		Raw:     raw,
		JWT:     parts[0],
		Header:  header,
		Payload: payload,
	}

	sdAlg := defaultSDAlg
	if alg := payload.GetStringBytes(sdAlgKey); alg != nil {
		sdAlg = strings.ToLower(string(alg))
	}

	rest := parts[1:]
	if n := len(rest); n > 0 && strings.Count(rest[n-1], ".") == 2 {
		h, _, err := decodeJWT(parser, rest[n-1])
		if err != nil || h["typ"] != keyBindingType {
			return nil, fmt.Errorf("%w: trailing JWT is not a key binding JWT", ErrInvalidSDJWT)
		}
		token.KeyBindingJWT = rest[n-1]
		rest = rest[:n-1]
	}

	for i, d := range rest {
		if d == "" {
			continue
		}
		disc, err := parseDisclosure(d, sdAlg)
		if err != nil {
			return nil, fmt.Errorf("%w: disclosure %d: %v", ErrInvalidSDJWT, i, err)
		}
		token.Disclosures = append(token.Disclosures, *disc)
	}

	r := newResolver(token.Disclosures)
	claims, err := r.resolve(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSDJWT, err)
	}
	if unused := r.unused(); len(unused) > 0 {
		return nil, fmt.Errorf("%w: disclosures not referenced by any digest: %s", ErrInvalidSDJWT, strings.Join(unused, ", "))
	}
	token.claims = claims
	return token, nil
}

func decodeJWT(parser *jwt.Parser, raw string) (map[string]interface{}, *fastjson.Value, error) {
	tok, parts, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, nil, err
	}
	data, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	payload, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return tok.Header, payload, nil
}

// Verify checks the signature of the issuer-signed JWT with key. Claims such
// as exp are not validated.
func (t *Token) Verify(key interface{}) error {
	_, err := jwt.Parse(t.JWT, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{"ES256", "ES384", "ES512", "EdDSA", "PS256", "RS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return fmt.Errorf("failed to verify SD-JWT: %w", err)
	}
	return nil
}

// VCT returns the vct claim, or "" when absent.
func (t *Token) VCT() string {
	return string(t.claims.GetStringBytes(vctKey))
}

// ResolvedClaims returns the payload with all disclosures applied.
func (t *Token) ResolvedClaims() *fastjson.Value {
	return t.claims
}

// Claims returns the top-level resolved claims: payload claims in payload
// order followed by disclosed claims in digest order.
func (t *Token) Claims() []dcql.JSONClaim {
	var claims []dcql.JSONClaim
	t.claims.GetObject().Visit(func(key []byte, v *fastjson.Value) {
		claims = append(claims, dcql.JSONClaim{
			Name:  string(key),
			Value: dcql.JSONClaimValue{JSON: v},
		})
	})
	return claims
}

// Credential converts the token into a JSON-based dcql credential.
func (t *Token) Credential(id string) (*dcql.Credential, error) {
	vct := t.VCT()
	if vct == "" {
		return nil, ErrMissingVCT
	}
	return dcql.NewJSONCredential(id, vct, t.Claims()...)
}
