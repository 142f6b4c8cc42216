package mdoc

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/kokukuma/dcql-wallet/dcql"
	"github.com/kokukuma/dcql-wallet/pkg/hash"
)

type DocType string

type NameSpace string

type ElementIdentifier string

// ElementValue is the encoded CBOR data item of a data element. It is kept
// encoded so tags such as full-date survive a round trip.
type ElementValue = cbor.RawMessage

type DeviceResponse struct {
	Version        string          `json:"version"`
	Documents      []Document      `json:"documents,omitempty"`
	DocumentErrors []DocumentError `json:"documentErrors,omitempty"`
	Status         uint            `json:"status"`
}

func (d DeviceResponse) GetDocument(docType DocType) (*Document, error) {
	for _, doc := range d.Documents {
		if doc.DocType == docType {
			return &doc, nil
		}
	}
	return nil, ErrDocumentNotFound{DocType: docType}
}

type Document struct {
	DocType      DocType      `json:"docType"`
	IssuerSigned IssuerSigned `json:"issuerSigned"`
	Errors       Errors       `json:"errors,omitempty"`
}

// ParseDocument decodes a CBOR encoded Document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryDocument, err, "failed to unmarshal document")
	}
	if doc.DocType == "" {
		return nil, ErrInvalidDocument{Reason: "missing docType"}
	}
	return &doc, nil
}

// ParseDocumentBase64 decodes a base64url CBOR Document, padded or not.
func ParseDocumentBase64(s string) (*Document, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryDocument, err, "failed to decode base64url")
	}
	return ParseDocument(data)
}

// ParseDeviceResponse decodes a CBOR encoded DeviceResponse.
func ParseDeviceResponse(data []byte) (*DeviceResponse, error) {
	var resp DeviceResponse
	if err := cbor.Unmarshal(data, &resp); err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryDocument, err, "failed to unmarshal device response")
	}
	return &resp, nil
}

func (d *Document) Marshal() ([]byte, error) {
	return cbor.Marshal(d)
}

func (d *Document) GetElementValue(namespace NameSpace, elementIdentifier ElementIdentifier) (ElementValue, error) {
	if d.DocType == "" {
		return nil, ErrInvalidDocument{Reason: "missing docType"}
	}

	itemBytes, exists := d.IssuerSigned.NameSpaces[namespace]
	if !exists {
		return nil, ErrNamespaceNotFound{NameSpace: namespace}
	}

	for _, ib := range itemBytes {
		item, err := ib.IssuerSignedItem()
		if err != nil {
			return nil, fmt.Errorf("failed to get issuer signed item: %w", err)
		}
		if item.ElementIdentifier == elementIdentifier {
			return item.ElementValue, nil
		}
	}
	return nil, ErrElementNotFound{NameSpace: namespace, ElementIdentifier: elementIdentifier}
}

// Credential converts the issuer-signed data elements into a credential for
// DCQL matching. Namespaces are ordered by name, elements keep the order of
// the document.
func (d *Document) Credential(id string) (*dcql.Credential, error) {
	var claims []dcql.MdocClaim
	for _, ns := range d.IssuerSigned.GetNameSpaces() {
		items, err := d.IssuerSigned.GetIssuerSignedItems(ns)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			value, err := dcql.MdocClaimValueFromRaw(item.ElementValue)
			if err != nil {
				return nil, NewWrappedCategoryError(ErrCategoryElement, err, "%s/%s", ns, item.ElementIdentifier)
			}
			claims = append(claims, dcql.MdocClaim{
				Namespace:   string(ns),
				DataElement: string(item.ElementIdentifier),
				Value:       value,
			})
		}
	}
	return dcql.NewMdocCredential(id, string(d.DocType), claims...)
}

type IssuerSigned struct {
	NameSpaces IssuerNameSpaces           `json:"nameSpaces,omitempty"`
	IssuerAuth *cose.UntaggedSign1Message `json:"issuerAuth,omitempty"`
}

// GetNameSpaces returns the namespaces sorted by name.
func (i *IssuerSigned) GetNameSpaces() []NameSpace {
	nss := make([]NameSpace, 0, len(i.NameSpaces))
	for ns := range i.NameSpaces {
		nss = append(nss, ns)
	}
	sort.Slice(nss, func(a, b int) bool { return nss[a] < nss[b] })
	return nss
}

func (i *IssuerSigned) GetIssuerSignedItems(ns NameSpace) ([]IssuerSignedItem, error) {
	if len(i.NameSpaces[ns]) == 0 {
		return nil, ErrNamespaceEmpty{NameSpace: ns}
	}
	isis := make([]IssuerSignedItem, 0, len(i.NameSpaces[ns]))
	for _, b := range i.NameSpaces[ns] {
		isi, err := b.IssuerSignedItem()
		if err != nil {
			return nil, fmt.Errorf("failed to parse issuerSignedItem: %w", err)
		}
		isis = append(isis, *isi)
	}
	return isis, nil
}

type IssuerNameSpaces map[NameSpace][]IssuerSignedItemBytes

// IssuerSignedItemBytes is the content of the #6.24 wrapped IssuerSignedItem.
type IssuerSignedItemBytes []byte

func (i IssuerSignedItemBytes) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{Number: tagEncodedCBOR, Content: []byte(i)})
}

func (i IssuerSignedItemBytes) IssuerSignedItem() (*IssuerSignedItem, error) {
	if len(i) == 0 {
		return nil, ErrInvalidDocument{Reason: "empty issuer signed item bytes"}
	}
	var item IssuerSignedItem
	if err := cbor.Unmarshal(i, &item); err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryElement, err, "failed to unmarshal issuer signed item")
	}
	return &item, nil
}

// Digest computes the value digest of the item as carried in the MSO.
func (i IssuerSignedItemBytes) Digest(alg string) (Digest, error) {
	v, err := i.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tagged CBOR: %w", err)
	}
	d, err := hash.Digest(v, alg)
	if err != nil {
		return nil, NewWrappedCategoryError(ErrCategoryDigest, err, "item digest")
	}
	return d, nil
}

type IssuerSignedItem struct {
	DigestID          DigestID          `json:"digestID"`
	Random            []byte            `json:"random"`
	ElementIdentifier ElementIdentifier `json:"elementIdentifier"`
	ElementValue      ElementValue      `json:"elementValue"`
}

type DigestID uint32

type Digest []byte

type DocumentError map[DocType]ErrorCode

type Errors map[NameSpace]ErrorItems

type ErrorItems map[ElementIdentifier]ErrorCode

type ErrorCode int

const tagEncodedCBOR = 24
