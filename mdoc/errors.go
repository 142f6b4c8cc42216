// Package mdoc implements the ISO/IEC 18013-5:2021 mobile document data model
// needed to hold issuer-signed documents in a wallet. This file contains error
// handling utilities.
package mdoc

import (
	"errors"
	"fmt"
)

// Error categories for mdoc package
const (
	// ErrCategoryDocument represents errors related to document structure and validity
	ErrCategoryDocument = "document"

	// ErrCategoryNamespace represents errors related to namespaces
	ErrCategoryNamespace = "namespace"

	// ErrCategoryElement represents errors related to document elements
	ErrCategoryElement = "element"

	// ErrCategoryCOSE represents errors related to COSE structures
	ErrCategoryCOSE = "cose"

	// ErrCategoryDigest represents errors related to digest operations
	ErrCategoryDigest = "digest"
)

// formatError formats an error message with an optional category prefix.
// It ensures consistent error message formatting across the package.
func formatError(category, format string, args ...interface{}) string {
	if category == "" {
		return fmt.Sprintf(format, args...)
	}
	return fmt.Sprintf("%s: %s", category, fmt.Sprintf(format, args...))
}

// NewCategoryError creates a new error with the specified category, format, and arguments.
func NewCategoryError(category, format string, args ...interface{}) error {
	return errors.New(formatError(category, format, args...))
}

// NewWrappedCategoryError creates a new error that wraps an existing error with a category and additional context.
func NewWrappedCategoryError(category string, err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", formatError(category, format, args...), err)
}

// ErrInvalidDocument is returned when a document is structurally unusable.
type ErrInvalidDocument struct {
	Reason string
}

func (e ErrInvalidDocument) Error() string {
	return formatError(ErrCategoryDocument, "invalid document: %s", e.Reason)
}

// ErrDocumentNotFound is returned when a device response has no document of the requested type.
type ErrDocumentNotFound struct {
	DocType DocType
}

func (e ErrDocumentNotFound) Error() string {
	return formatError(ErrCategoryDocument, "failed to find doc: doctype=%s", e.DocType)
}

type ErrNamespaceNotFound struct {
	NameSpace NameSpace
}

func (e ErrNamespaceNotFound) Error() string {
	return formatError(ErrCategoryNamespace, "namespace %s not found", e.NameSpace)
}

type ErrNamespaceEmpty struct {
	NameSpace NameSpace
}

func (e ErrNamespaceEmpty) Error() string {
	return formatError(ErrCategoryNamespace, "no items in namespace %s", e.NameSpace)
}

type ErrElementNotFound struct {
	NameSpace         NameSpace
	ElementIdentifier ElementIdentifier
}

func (e ErrElementNotFound) Error() string {
	return formatError(ErrCategoryElement, "element %s not found in namespace %s", e.ElementIdentifier, e.NameSpace)
}

// ErrDigestMismatch is returned when an item does not match its digest in the MSO.
type ErrDigestMismatch struct {
	NameSpace NameSpace
	DigestID  DigestID
}

func (e ErrDigestMismatch) Error() string {
	return formatError(ErrCategoryDigest, "digest unmatched %s digestID:%d", e.NameSpace, e.DigestID)
}

// ErrMissingIssuerAuth is returned for operations on a document without issuerAuth.
var ErrMissingIssuerAuth = errors.New(formatError(ErrCategoryCOSE, "missing issuerAuth"))

// IsDocumentError checks if an error is related to document issues
func IsDocumentError(err error) bool {
	var docErr ErrInvalidDocument
	var docNotFoundErr ErrDocumentNotFound
	return errors.As(err, &docErr) || errors.As(err, &docNotFoundErr)
}

// IsNamespaceError checks if an error is related to namespace issues
func IsNamespaceError(err error) bool {
	var nsNotFoundErr ErrNamespaceNotFound
	var nsEmptyErr ErrNamespaceEmpty
	return errors.As(err, &nsNotFoundErr) || errors.As(err, &nsEmptyErr)
}

// IsElementError checks if an error is related to element issues
func IsElementError(err error) bool {
	var elemNotFoundErr ErrElementNotFound
	return errors.As(err, &elemNotFoundErr)
}

// IsDigestError checks if an error is related to digest issues
func IsDigestError(err error) bool {
	var mismatchErr ErrDigestMismatch
	return errors.As(err, &mismatchErr)
}
