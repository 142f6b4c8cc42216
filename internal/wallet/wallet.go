// Package wallet keeps the holder's credentials in memory and matches DCQL
// queries against them.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kokukuma/dcql-wallet/dcql"
	"github.com/kokukuma/dcql-wallet/mdoc"
	"github.com/kokukuma/dcql-wallet/sdjwt"
)

var (
	ErrNotFound    = errors.New("credential not found")
	ErrDuplicateID = errors.New("credential id already exists")
)

// Entry is a stored credential.
type Entry struct {
	ID         string
	Format     string
	AddedAt    time.Time
	Credential *dcql.Credential
}

// DocType returns the mdoc doctype or the SD-JWT vct.
func (e *Entry) DocType() string {
	if e.Credential.IsMdoc() {
		return e.Credential.MdocDocType()
	}
	return e.Credential.VCT()
}

type Wallet struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string

	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Wallet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wallet{
		entries: make(map[string]*Entry),
		logger:  logger,
		now:     time.Now,
	}
}

// AddMdoc stores an issuer-signed mdoc document. A random id is assigned when
// id is empty.
func (w *Wallet) AddMdoc(id string, doc *mdoc.Document) (*Entry, error) {
	id = newID(id)
	cred, err := doc.Credential(id)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mdoc: %w", err)
	}
	return w.add(dcql.FormatMsoMdoc, cred)
}

// AddSDJWT parses and stores an SD-JWT VC. A random id is assigned when id is
// empty.
func (w *Wallet) AddSDJWT(id string, raw string) (*Entry, error) {
	token, err := sdjwt.Parse(raw)
	if err != nil {
		return nil, err
	}
	cred, err := token.Credential(newID(id))
	if err != nil {
		return nil, err
	}
	return w.add(dcql.FormatSDJWT, cred)
}

// AddCredential stores a credential that is already in dcql form.
func (w *Wallet) AddCredential(cred *dcql.Credential) (*Entry, error) {
	if cred.ID() == "" {
		return nil, fmt.Errorf("%w: empty id", dcql.ErrInvalidCredential)
	}
	format := dcql.FormatSDJWT
	if cred.IsMdoc() {
		format = dcql.FormatMsoMdoc
	}
	return w.add(format, cred)
}

func (w *Wallet) add(format string, cred *dcql.Credential) (*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[cred.ID()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, cred.ID())
	}
	entry := &Entry{
		ID:         cred.ID(),
		Format:     format,
		AddedAt:    w.now(),
		Credential: cred,
	}
	w.entries[entry.ID] = entry
	w.order = append(w.order, entry.ID)

	w.logger.Info("credential added",
		zap.String("credential_id", entry.ID),
		zap.String("format", format),
		zap.String("doctype", entry.DocType()))
	return entry, nil
}

func (w *Wallet) Get(id string) (*Entry, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	entry, ok := w.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, nil
}

// List returns the entries in insertion order.
func (w *Wallet) List() []*Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return lo.Map(w.order, func(id string, _ int) *Entry {
		return w.entries[id]
	})
}

func (w *Wallet) Delete(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(w.entries, id)
	w.order = lo.Without(w.order, id)

	w.logger.Info("credential deleted", zap.String("credential_id", id))
	return nil
}

// Credentials returns the stored credentials in insertion order.
func (w *Wallet) Credentials() []*dcql.Credential {
	return lo.Map(w.List(), func(e *Entry, _ int) *dcql.Credential {
		return e.Credential
	})
}

// Match runs query against a snapshot of the stored credentials.
func (w *Wallet) Match(ctx context.Context, query *dcql.Query) ([]dcql.CredentialResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	creds := w.Credentials()

	responses, err := query.Execute(creds, dcql.WithLogger(w.logger))
	if err != nil {
		return nil, err
	}
	w.logger.Debug("query matched",
		zap.Int("credentials", len(creds)),
		zap.Int("responses", len(responses)))
	return responses, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
