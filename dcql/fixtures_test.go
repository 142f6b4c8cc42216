package dcql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	mdlDocType   = "org.iso.18013.5.1.mDL"
	isoNamespace = "org.iso.18013.5.1"
	pidVCT       = "https://credentials.example.com/identity_credential"
)

func mc(namespace, element string, v interface{}) MdocClaim {
	return MdocClaim{Namespace: namespace, DataElement: element, Value: MustMdocClaimValue(v)}
}

func jc(name, raw string) JSONClaim {
	return JSONClaim{Name: name, Value: MustJSONClaimValue(raw)}
}

func mdocCredential(t *testing.T, id, docType string, claims ...MdocClaim) *Credential {
	t.Helper()
	c, err := NewMdocCredential(id, docType, claims...)
	require.NoError(t, err)
	return c
}

func jsonCredential(t *testing.T, id, vct string, claims ...JSONClaim) *Credential {
	t.Helper()
	c, err := NewJSONCredential(id, vct, claims...)
	require.NoError(t, err)
	return c
}

func mustParseQuery(t *testing.T, raw string) *Query {
	t.Helper()
	q, err := ParseQuery([]byte(raw))
	require.NoError(t, err)
	return q
}

func mdlErika(t *testing.T) *Credential {
	return mdocCredential(t, "my-mDL-Erika", mdlDocType,
		mc(isoNamespace, "given_name", "Erika"),
		mc(isoNamespace, "family_name", "Mustermann"),
		mc(isoNamespace, "resident_address", "Sample Street 123"),
	)
}

func mdlMax(t *testing.T) *Credential {
	return mdocCredential(t, "my-mDL-Max", mdlDocType,
		mc(isoNamespace, "given_name", "Max"),
		mc(isoNamespace, "family_name", "Mustermann"),
		mc(isoNamespace, "resident_address", "Sample Street 456"),
	)
}

func mdlErikaNoResidentAddress(t *testing.T) *Credential {
	return mdocCredential(t, "my-mDL-without-resident-address", mdlDocType,
		mc(isoNamespace, "given_name", "Erika"),
		mc(isoNamespace, "family_name", "Mustermann"),
	)
}

func pidMdoc(t *testing.T) *Credential {
	return mdocCredential(t, "my-PID-mdoc", "eu.europa.ec.eudi.pid.1",
		mc("eu.europa.ec.eudi.pid.1", "given_name", "Erika"),
		mc("eu.europa.ec.eudi.pid.1", "family_name", "Mustermann"),
		mc("eu.europa.ec.eudi.pid.1", "resident_address", "Sample Street 123"),
	)
}

func pidErika(t *testing.T) *Credential {
	return jsonCredential(t, "my-PID-Erika", pidVCT,
		jc("given_name", `"Erika"`),
		jc("family_name", `"Mustermann"`),
		jc("address", `{"country":"US","state":"CA","postal_code":"90210","street_address":"Sample Street 123"}`),
	)
}

func pidMax(t *testing.T) *Credential {
	return jsonCredential(t, "my-PID-Max", pidVCT,
		jc("given_name", `"Max"`),
		jc("family_name", `"Mustermann"`),
		jc("address", `{"country":"US","state":"CA","postal_code":"90210","street_address":"Sample Street 456"}`),
	)
}

func pidErikaNoStreetAddress(t *testing.T) *Credential {
	return jsonCredential(t, "my-PID-without-resident-address", pidVCT,
		jc("given_name", `"Erika"`),
		jc("family_name", `"Mustermann"`),
	)
}

func nonPidCredential(t *testing.T) *Credential {
	return jsonCredential(t, "my-PID-mdoc", "https://credentials.example.com/other_credential",
		jc("given_name", `"Erika"`),
		jc("family_name", `"Mustermann"`),
		jc("address", `{"country":"US","state":"CA","postal_code":"90210","street_address":"Sample Street 123"}`),
	)
}

// pidErikaDetailed carries nested objects and arrays for path selection.
func pidErikaDetailed(t *testing.T) *Credential {
	return jsonCredential(t, "my-PID-Erika", pidVCT,
		jc("given_name", `"Erika"`),
		jc("family_name", `"Mustermann"`),
		jc("address", `{"country":"US","state":"CA","postal_code":90210,"street_address":"Sample Street 123","house_number":123}`),
		jc("nationalities", `["German","American"]`),
		jc("degrees", `[{"type":"Bachelor of Science","university":"University of Betelgeuse"},{"type":"Master of Science","university":"University of Betelgeuse"}]`),
	)
}

const singleMdlQuery = `{
  "credentials": [
    {
      "id": "my_credential",
      "format": "mso_mdoc",
      "meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
      "claims": [
        {"path": ["org.iso.18013.5.1", "given_name"]},
        {"path": ["org.iso.18013.5.1", "resident_address"]}
      ]
    }
  ]
}`

const singlePidQuery = `{
  "credentials": [
    {
      "id": "my_credential",
      "format": "dc+sd-jwt",
      "meta": {"vct_values": ["https://credentials.example.com/identity_credential"]},
      "claims": [
        {"path": ["given_name"]},
        {"path": ["address", "street_address"]}
      ]
    }
  ]
}`

const singlePidQueryForEntireAddress = `{
  "credentials": [
    {
      "id": "my_credential",
      "format": "dc+sd-jwt",
      "meta": {"vct_values": ["https://credentials.example.com/identity_credential"]},
      "claims": [
        {"path": ["given_name"]},
        {"path": ["address"]}
      ]
    }
  ]
}`

const mdlAndPidQuery = `{
  "credentials": [
    {
      "id": "my_mdl",
      "format": "mso_mdoc",
      "meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
      "claims": [
        {"path": ["org.iso.18013.5.1", "given_name"]},
        {"path": ["org.iso.18013.5.1", "resident_address"]}
      ]
    },
    {
      "id": "my_pid",
      "format": "dc+sd-jwt",
      "meta": {"vct_values": ["https://credentials.example.com/identity_credential"]},
      "claims": [
        {"path": ["given_name"]},
        {"path": ["address", "street_address"]}
      ]
    }
  ]
}`
