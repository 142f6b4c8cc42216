package dcql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mdlSexMale(t *testing.T) *Credential {
	return mdocCredential(t, "my-mDL-Max-sex", mdlDocType,
		mc(isoNamespace, "given_name", "Max"),
		mc(isoNamespace, "family_name", "Mustermann"),
		mc(isoNamespace, "sex", uint64(1)),
	)
}

func mdlSexFemale(t *testing.T) *Credential {
	return mdocCredential(t, "my-mDL-Erika-sex", mdlDocType,
		mc(isoNamespace, "given_name", "Erika"),
		mc(isoNamespace, "family_name", "Mustermann"),
		mc(isoNamespace, "sex", uint64(2)),
	)
}

func mdlPostalCode(t *testing.T, id, givenName, postalCode, country string) *Credential {
	return mdocCredential(t, id, mdlDocType,
		mc(isoNamespace, "given_name", givenName),
		mc(isoNamespace, "family_name", "Mustermann"),
		mc(isoNamespace, "resident_postal_code", postalCode),
		mc(isoNamespace, "resident_country", country),
	)
}

func allValueMatchingCredentials(t *testing.T) []*Credential {
	return []*Credential{
		mdlSexMale(t),
		mdlSexFemale(t),
		mdlPostalCode(t, "my-mDL-Max", "Max", "94043", "US"),
		mdlPostalCode(t, "my-mDL-Erika", "Erika", "90210", "US"),
		mdlPostalCode(t, "my-mDL-OG", "OG", "90210", "DE"),
	}
}

func valuesQuery(claims string) string {
	return `{
  "credentials": [
    {
      "id": "my_credential",
      "format": "mso_mdoc",
      "meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
      "claims": [
        {"path": ["org.iso.18013.5.1", "given_name"]},
        {"path": ["org.iso.18013.5.1", "family_name"]},
        ` + claims + `
      ]
    }
  ]
}`
}

func TestExecute_ValueMatching(t *testing.T) {
	tests := []struct {
		name   string
		claims string
		want   string
	}{
		{
			name:   "sex male",
			claims: `{"path": ["org.iso.18013.5.1", "sex"], "values": [1]}`,
			want: `
responses:
  response:
    credentialQuery:
      id: my_credential
    matches:
      match:
        credential: my-mDL-Max-sex
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Max"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","sex"]
            value: 1
`,
		},
		{
			name:   "sex male or female",
			claims: `{"path": ["org.iso.18013.5.1", "sex"], "values": [1, 2]}`,
			want: `
responses:
  response:
    credentialQuery:
      id: my_credential
    matches:
      match:
        credential: my-mDL-Max-sex
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Max"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","sex"]
            value: 1
      match:
        credential: my-mDL-Erika-sex
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Erika"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","sex"]
            value: 2
`,
		},
		{
			name:   "postal code 90210",
			claims: `{"path": ["org.iso.18013.5.1", "resident_postal_code"], "values": ["90210"]}`,
			want: `
responses:
  response:
    credentialQuery:
      id: my_credential
    matches:
      match:
        credential: my-mDL-Erika
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Erika"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","resident_postal_code"]
            value: "90210"
      match:
        credential: my-mDL-OG
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "OG"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","resident_postal_code"]
            value: "90210"
`,
		},
		{
			name: "postal code 90210 or 94043 in US",
			claims: `{"path": ["org.iso.18013.5.1", "resident_postal_code"], "values": ["90210", "94043"]},
        {"path": ["org.iso.18013.5.1", "resident_country"], "values": ["US"]}`,
			want: `
responses:
  response:
    credentialQuery:
      id: my_credential
    matches:
      match:
        credential: my-mDL-Max
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Max"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","resident_postal_code"]
            value: "94043"
          claim:
            path: ["org.iso.18013.5.1","resident_country"]
            value: "US"
      match:
        credential: my-mDL-Erika
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Erika"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","resident_postal_code"]
            value: "90210"
          claim:
            path: ["org.iso.18013.5.1","resident_country"]
            value: "US"
`,
		},
		{
			name: "postal code 90210 in US",
			claims: `{"path": ["org.iso.18013.5.1", "resident_postal_code"], "values": ["90210"]},
        {"path": ["org.iso.18013.5.1", "resident_country"], "values": ["US"]}`,
			want: `
responses:
  response:
    credentialQuery:
      id: my_credential
    matches:
      match:
        credential: my-mDL-Erika
        claims:
          claim:
            path: ["org.iso.18013.5.1","given_name"]
            value: "Erika"
          claim:
            path: ["org.iso.18013.5.1","family_name"]
            value: "Mustermann"
          claim:
            path: ["org.iso.18013.5.1","resident_postal_code"]
            value: "90210"
          claim:
            path: ["org.iso.18013.5.1","resident_country"]
            value: "US"
`,
		},
	}

	for _, tt := range tests {
		runExecuteTests(t, valuesQuery(tt.claims), []executeTest{{
			name:        tt.name,
			credentials: allValueMatchingCredentials,
			want:        tt.want,
		}})
	}
}

func TestMdocValueEquals(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		candidate string
		want      bool
		wantErr   bool
	}{
		{name: "text", value: "US", candidate: `"US"`, want: true},
		{name: "text mismatch", value: "US", candidate: `"DE"`},
		{name: "text against number literal", value: "90210", candidate: `90210`, want: true},
		{name: "uint", value: uint64(1), candidate: `1`, want: true},
		{name: "uint mismatch", value: uint64(2), candidate: `1`},
		{name: "uint against string content", value: uint64(1), candidate: `"1"`, want: true},
		{name: "uint against non-integer", value: uint64(1), candidate: `"one"`},
		{name: "nint", value: int64(-5), candidate: `-5`, want: true},
		{name: "true", value: true, candidate: `true`, want: true},
		{name: "false", value: false, candidate: `false`, want: true},
		{name: "true against false", value: true, candidate: `false`},
		{name: "bool against string", value: true, candidate: `"true"`, want: true},
		{name: "full-date", value: FullDate("1976-03-02"), candidate: `"1976-03-02"`, wantErr: true},
		{name: "byte string", value: []byte{1, 2}, candidate: `"AQI"`, wantErr: true},
		{name: "array", value: []string{"a"}, candidate: `"a"`, wantErr: true},
		{name: "non-scalar candidate", value: "a", candidate: `["a"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mdocValueEquals(MustMdocClaimValue(tt.value), MustJSONClaimValue(tt.candidate).JSON)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedValueComparison)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_UnsupportedValueComparisonIsFatal(t *testing.T) {
	q := mustParseQuery(t, `{
  "credentials": [
    {
      "id": "my_credential",
      "format": "mso_mdoc",
      "meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
      "claims": [{"path": ["org.iso.18013.5.1", "birth_date"], "values": ["1976-03-02"]}]
    }
  ]
}`)
	cred := mdocCredential(t, "my-mDL", mdlDocType, mc(isoNamespace, "birth_date", FullDate("1976-03-02")))

	_, err := q.Execute([]*Credential{cred})
	require.ErrorIs(t, err, ErrUnsupportedValueComparison)
}

func TestExecute_ValuesIgnoredForJSONCredentials(t *testing.T) {
	q := mustParseQuery(t, `{
  "credentials": [
    {
      "id": "pid",
      "format": "dc+sd-jwt",
      "meta": {"vct_values": ["https://credentials.example.com/identity_credential"]},
      "claims": [{"path": ["given_name"], "values": ["Max"]}]
    }
  ]
}`)
	got, err := q.Execute([]*Credential{pidErika(t)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Matches, 1)
	require.Equal(t, `"Erika"`, got[0].Matches[0].ClaimValues[0].Value.String())
}
