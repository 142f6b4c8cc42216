package mdoc

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

const (
	msoVersion = "1.0"

	DefaultDigestAlgorithm = "SHA-256"

	randomLength = 16
)

// MobileSecurityObject is the payload of issuerAuth (ISO 18013-5 9.1.2.4).
type MobileSecurityObject struct {
	Version         string       `json:"version"`
	DigestAlgorithm string       `json:"digestAlgorithm"`
	ValueDigests    ValueDigests `json:"valueDigests"`
	DocType         DocType      `json:"docType"`
	ValidityInfo    ValidityInfo `json:"validityInfo"`
}

type ValueDigests map[NameSpace]DigestIDs

type DigestIDs map[DigestID]Digest

type ValidityInfo struct {
	Signed     time.Time `json:"signed"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
}

// NewDocument builds a document holding the given data elements. Elements
// keep their order within each namespace; digest IDs are assigned in that
// order.
func NewDocument(docType DocType, elements ...DataElement) (*Document, error) {
	return newDocument(rand.Reader, docType, elements)
}

func newDocument(random io.Reader, docType DocType, elements []DataElement) (*Document, error) {
	if docType == "" {
		return nil, ErrInvalidDocument{Reason: "missing docType"}
	}

	nameSpaces := IssuerNameSpaces{}
	for i, e := range elements {
		value, err := cbor.Marshal(e.Value)
		if err != nil {
			return nil, NewWrappedCategoryError(ErrCategoryElement, err, "failed to marshal %s/%s", e.Namespace, e.Name)
		}
		salt := make([]byte, randomLength)
		if _, err := io.ReadFull(random, salt); err != nil {
			return nil, fmt.Errorf("failed to read random: %w", err)
		}
		item, err := cbor.Marshal(IssuerSignedItem{
			DigestID:          DigestID(i),
			Random:            salt,
			ElementIdentifier: e.Name,
			ElementValue:      value,
		})
		if err != nil {
			return nil, NewWrappedCategoryError(ErrCategoryElement, err, "failed to marshal issuer signed item")
		}
		nameSpaces[e.Namespace] = append(nameSpaces[e.Namespace], IssuerSignedItemBytes(item))
	}

	return &Document{
		DocType:      docType,
		IssuerSigned: IssuerSigned{NameSpaces: nameSpaces},
	}, nil
}

// MobileSecurityObject computes the MSO for the current issuer-signed items.
func (d *Document) MobileSecurityObject(digestAlg string, validity ValidityInfo) (*MobileSecurityObject, error) {
	digests := ValueDigests{}
	for ns, items := range d.IssuerSigned.NameSpaces {
		ids := DigestIDs{}
		for _, ib := range items {
			item, err := ib.IssuerSignedItem()
			if err != nil {
				return nil, err
			}
			digest, err := ib.Digest(digestAlg)
			if err != nil {
				return nil, err
			}
			ids[item.DigestID] = digest
		}
		digests[ns] = ids
	}
	return &MobileSecurityObject{
		Version:         msoVersion,
		DigestAlgorithm: digestAlg,
		ValueDigests:    digests,
		DocType:         d.DocType,
		ValidityInfo:    validity,
	}, nil
}

// Sign sets issuerAuth to a COSE_Sign1 over the MSO of the document.
func (d *Document) Sign(signer cose.Signer, validity ValidityInfo) error {
	mso, err := d.MobileSecurityObject(DefaultDigestAlgorithm, validity)
	if err != nil {
		return err
	}
	msoBytes, err := cbor.Marshal(mso)
	if err != nil {
		return fmt.Errorf("failed to marshal MSO: %w", err)
	}
	payload, err := cbor.Marshal(cbor.Tag{Number: tagEncodedCBOR, Content: msoBytes})
	if err != nil {
		return fmt.Errorf("failed to marshal tagged MSO: %w", err)
	}

	msg := &cose.UntaggedSign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: signer.Algorithm(),
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return NewWrappedCategoryError(ErrCategoryCOSE, err, "failed to sign issuerAuth")
	}
	d.IssuerSigned.IssuerAuth = msg
	return nil
}

func (i *IssuerSigned) Alg() (cose.Algorithm, error) {
	if i.IssuerAuth == nil {
		return 0, ErrMissingIssuerAuth
	}
	if i.IssuerAuth.Headers.Protected == nil {
		return 0, NewCategoryError(ErrCategoryCOSE, "protected header is nil")
	}
	return i.IssuerAuth.Headers.Protected.Algorithm()
}

func (i *IssuerSigned) MobileSecurityObject() (*MobileSecurityObject, error) {
	if i.IssuerAuth == nil {
		return nil, ErrMissingIssuerAuth
	}
	if i.IssuerAuth.Payload == nil {
		return nil, NewCategoryError(ErrCategoryCOSE, "missing payload")
	}

	var taggedData cbor.Tag
	if err := cbor.Unmarshal(i.IssuerAuth.Payload, &taggedData); err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryCOSE, err, "failed to unmarshal tagged data")
	}

	content, ok := taggedData.Content.([]byte)
	if !ok {
		return nil, NewCategoryError(ErrCategoryCOSE, "unexpected content type: %T", taggedData.Content)
	}

	var mso MobileSecurityObject
	if err := cbor.Unmarshal(content, &mso); err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryCOSE, err, "failed to unmarshal MSO")
	}
	return &mso, nil
}

// VerifyIssuerAuth checks the issuerAuth signature with verifier and that
// every issuer-signed item matches its digest in the MSO. Certificate chains
// are not evaluated.
func (d *Document) VerifyIssuerAuth(verifier cose.Verifier) error {
	if d.IssuerSigned.IssuerAuth == nil {
		return ErrMissingIssuerAuth
	}
	if err := d.IssuerSigned.IssuerAuth.Verify(nil, verifier); err != nil {
		return NewWrappedCategoryError(ErrCategoryCOSE, err, "failed to verify issuerAuth")
	}

	mso, err := d.IssuerSigned.MobileSecurityObject()
	if err != nil {
		return err
	}
	if mso.DocType != d.DocType {
		return ErrInvalidDocument{Reason: fmt.Sprintf("docType %s does not match MSO docType %s", d.DocType, mso.DocType)}
	}
	return verifyDigests(d.IssuerSigned, mso)
}

func verifyDigests(issuerSigned IssuerSigned, mso *MobileSecurityObject) error {
	for _, ns := range issuerSigned.GetNameSpaces() {
		digestIDs, ok := mso.ValueDigests[ns]
		if !ok {
			return NewCategoryError(ErrCategoryDigest, "failed to get ValueDigests of %s", ns)
		}

		for _, itemByte := range issuerSigned.NameSpaces[ns] {
			item, err := itemByte.IssuerSignedItem()
			if err != nil {
				return err
			}

			digest, ok := digestIDs[item.DigestID]
			if !ok {
				return ErrDigestMismatch{NameSpace: ns, DigestID: item.DigestID}
			}

			calc, err := itemByte.Digest(mso.DigestAlgorithm)
			if err != nil {
				return err
			}

			if !bytes.Equal(digest, calc) {
				return ErrDigestMismatch{NameSpace: ns, DigestID: item.DigestID}
			}
		}
	}
	return nil
}
