package mdoc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/kokukuma/dcql-wallet/dcql"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	ageOver18, err := AgeOver(18)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := NewDocument(IsoMDL,
		GivenName.With("Erika"),
		FamilyName.With("Mustermann"),
		ageOver18.With(true),
		BirthDate.With(dcql.FullDate("1971-09-01")),
		Element{Namespace: "org.iso.18013.5.1.aamva", Name: "organ_donor"}.With(1),
	)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func roundTrip(t *testing.T, doc *Document) *Document {
	t.Helper()
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return parsed
}

func TestParseDocument_RoundTrip(t *testing.T) {
	doc := roundTrip(t, newTestDocument(t))

	if doc.DocType != IsoMDL {
		t.Fatalf("DocType = %s, want %s", doc.DocType, IsoMDL)
	}

	tests := []struct {
		ns   NameSpace
		id   ElementIdentifier
		want string
	}{
		{ns: ISO1801351, id: "given_name", want: `"Erika"`},
		{ns: ISO1801351, id: "age_over_18", want: "true"},
		{ns: ISO1801351, id: "birth_date", want: `1004("1971-09-01")`},
		{ns: "org.iso.18013.5.1.aamva", id: "organ_donor", want: "1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			v, err := doc.GetElementValue(tt.ns, tt.id)
			if err != nil {
				t.Fatalf("GetElementValue() error = %v", err)
			}
			diag, err := cbor.Diagnose(v)
			if err != nil {
				t.Fatal(err)
			}
			if diag != tt.want {
				t.Errorf("GetElementValue() = %s, want %s", diag, tt.want)
			}
		})
	}
}

func TestGetElementValue_Errors(t *testing.T) {
	doc := newTestDocument(t)

	if _, err := doc.GetElementValue("org.example", "x"); !IsNamespaceError(err) {
		t.Errorf("expected namespace error, got %v", err)
	}
	if _, err := doc.GetElementValue(ISO1801351, "portrait"); !IsElementError(err) {
		t.Errorf("expected element error, got %v", err)
	}
	empty := &Document{}
	if _, err := empty.GetElementValue(ISO1801351, "given_name"); !IsDocumentError(err) {
		t.Errorf("expected document error, got %v", err)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	if _, err := ParseDocument([]byte{0xff}); err == nil {
		t.Error("expected error for malformed CBOR")
	}
	data, err := cbor.Marshal(map[string]interface{}{"issuerSigned": map[string]interface{}{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDocument(data); !IsDocumentError(err) {
		t.Errorf("expected document error, got %v", err)
	}
}

func TestParseDocumentBase64(t *testing.T) {
	data, err := newTestDocument(t).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for name, enc := range map[string]*base64.Encoding{
		"raw":    base64.RawURLEncoding,
		"padded": base64.URLEncoding,
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := ParseDocumentBase64(enc.EncodeToString(data))
			if err != nil {
				t.Fatalf("ParseDocumentBase64() error = %v", err)
			}
			if doc.DocType != IsoMDL {
				t.Errorf("DocType = %s", doc.DocType)
			}
		})
	}
}

func TestDocument_Credential(t *testing.T) {
	cred, err := roundTrip(t, newTestDocument(t)).Credential("my-mDL")
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if cred.ID() != "my-mDL" || cred.MdocDocType() != string(IsoMDL) {
		t.Fatalf("unexpected credential %s %s", cred.ID(), cred.MdocDocType())
	}

	var got []string
	for _, c := range cred.Claims() {
		mc := c.(dcql.MdocClaim)
		got = append(got, mc.Namespace+"/"+mc.DataElement+"="+mc.Value.String())
	}
	want := []string{
		`org.iso.18013.5.1/given_name="Erika"`,
		`org.iso.18013.5.1/family_name="Mustermann"`,
		`org.iso.18013.5.1/age_over_18=true`,
		`org.iso.18013.5.1/birth_date=1004("1971-09-01")`,
		`org.iso.18013.5.1.aamva/organ_donor=1`,
	}
	if len(got) != len(want) {
		t.Fatalf("Claims() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("claim %d = %s, want %s", i, got[i], want[i])
		}
	}

	q, err := dcql.ParseQuery([]byte(`{
  "credentials": [{
    "id": "mdl",
    "format": "mso_mdoc",
    "meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
    "claims": [
      {"path": ["org.iso.18013.5.1", "age_over_18"], "values": [true]},
      {"path": ["org.iso.18013.5.1.aamva", "organ_donor"], "values": [1]}
    ]
  }]
}`))
	if err != nil {
		t.Fatal(err)
	}
	responses, err := q.Execute([]*dcql.Credential{cred})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(responses[0].Matches) != 1 {
		t.Errorf("expected one match, got %d", len(responses[0].Matches))
	}
}

func TestGetDocument(t *testing.T) {
	docType := DocType("testDoc")
	doc := Document{DocType: docType}
	resp := DeviceResponse{Documents: []Document{doc}}

	retrievedDoc, err := resp.GetDocument(docType)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if retrievedDoc.DocType != docType {
		t.Fatalf("Expected docType %v, got %v", docType, retrievedDoc.DocType)
	}

	if _, err := resp.GetDocument(IsoMDL); !IsDocumentError(err) {
		t.Fatalf("Expected document error, got %v", err)
	}
}

func TestParseDeviceResponse(t *testing.T) {
	doc := newTestDocument(t)
	data, err := cbor.Marshal(DeviceResponse{Version: "1.0", Documents: []Document{*doc}})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ParseDeviceResponse(data)
	if err != nil {
		t.Fatalf("ParseDeviceResponse() error = %v", err)
	}
	got, err := resp.GetDocument(IsoMDL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := got.GetElementValue(ISO1801351, "family_name"); err != nil {
		t.Errorf("GetElementValue() error = %v", err)
	}
}

func TestSignAndVerifyIssuerAuth(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := cose.NewVerifier(cose.AlgorithmES256, &key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().Truncate(time.Second).UTC()
	validity := ValidityInfo{Signed: now, ValidFrom: now, ValidUntil: now.Add(24 * time.Hour)}

	doc := newTestDocument(t)
	if err := doc.Sign(signer, validity); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	doc = roundTrip(t, doc)

	alg, err := doc.IssuerSigned.Alg()
	if err != nil || alg != cose.AlgorithmES256 {
		t.Fatalf("Alg() = %v, %v", alg, err)
	}
	mso, err := doc.IssuerSigned.MobileSecurityObject()
	if err != nil {
		t.Fatalf("MobileSecurityObject() error = %v", err)
	}
	if mso.DocType != IsoMDL || mso.DigestAlgorithm != DefaultDigestAlgorithm {
		t.Errorf("unexpected MSO %+v", mso)
	}
	if !mso.ValidityInfo.ValidUntil.Equal(validity.ValidUntil) {
		t.Errorf("ValidUntil = %v, want %v", mso.ValidityInfo.ValidUntil, validity.ValidUntil)
	}

	if err := doc.VerifyIssuerAuth(verifier); err != nil {
		t.Fatalf("VerifyIssuerAuth() error = %v", err)
	}

	t.Run("tampered item", func(t *testing.T) {
		tampered := roundTrip(t, doc)
		forged, err := NewDocument(IsoMDL, GivenName.With("Max"))
		if err != nil {
			t.Fatal(err)
		}
		tampered.IssuerSigned.NameSpaces[ISO1801351][0] = forged.IssuerSigned.NameSpaces[ISO1801351][0]
		if err := tampered.VerifyIssuerAuth(verifier); !IsDigestError(err) {
			t.Errorf("expected digest error, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		otherVerifier, err := cose.NewVerifier(cose.AlgorithmES256, &other.PublicKey)
		if err != nil {
			t.Fatal(err)
		}
		if err := doc.VerifyIssuerAuth(otherVerifier); err == nil {
			t.Error("expected signature error")
		}
	})

	t.Run("unsigned", func(t *testing.T) {
		if err := newTestDocument(t).VerifyIssuerAuth(verifier); !errors.Is(err, ErrMissingIssuerAuth) {
			t.Errorf("expected ErrMissingIssuerAuth, got %v", err)
		}
	})
}

func TestAgeOver(t *testing.T) {
	e, err := AgeOver(21)
	if err != nil || e.Name != "age_over_21" {
		t.Errorf("AgeOver(21) = %v, %v", e, err)
	}
	if _, err := AgeOver(100); err == nil {
		t.Error("expected error for 100")
	}
}
