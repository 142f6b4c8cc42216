package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/kokukuma/dcql-wallet/dcql"
	"github.com/kokukuma/dcql-wallet/internal/wallet"
	"github.com/kokukuma/dcql-wallet/mdoc"
)

type AddMdocRequest struct {
	ID string `json:"id,omitempty"`
	// Document is a base64url encoded issuer-signed mdoc document.
	Document string `json:"document"`
}

type AddSDJWTRequest struct {
	ID         string `json:"id,omitempty"`
	Credential string `json:"credential"`
}

type CredentialInfo struct {
	ID      string      `json:"id"`
	Format  string      `json:"format"`
	DocType string      `json:"doctype"`
	AddedAt time.Time   `json:"added_at"`
	Claims  []ClaimInfo `json:"claims,omitempty"`
}

type ClaimInfo struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

func newCredentialInfo(e *wallet.Entry, withClaims bool) CredentialInfo {
	info := CredentialInfo{
		ID:      e.ID,
		Format:  e.Format,
		DocType: e.DocType(),
		AddedAt: e.AddedAt,
	}
	if !withClaims {
		return info
	}
	info.Claims = lo.Map(e.Credential.Claims(), func(c dcql.CredentialClaim, _ int) ClaimInfo {
		switch c := c.(type) {
		case dcql.MdocClaim:
			return ClaimInfo{Namespace: c.Namespace, Name: c.DataElement, Value: c.Value.String()}
		case dcql.JSONClaim:
			return ClaimInfo{Name: c.Name, Value: c.Value.String()}
		}
		return ClaimInfo{}
	})
	return info
}

func (s *Server) AddMdoc(w http.ResponseWriter, r *http.Request) {
	req := AddMdocRequest{}
	if err := parseJSON(r, &req); err != nil {
		s.jsonErrorResponse(w, fmt.Errorf("failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	doc, err := mdoc.ParseDocumentBase64(req.Document)
	if err != nil {
		s.jsonErrorResponse(w, fmt.Errorf("failed to parse document: %v", err), http.StatusBadRequest)
		return
	}

	entry, err := s.wallet.AddMdoc(req.ID, doc)
	if err != nil {
		s.addError(w, err)
		return
	}
	s.credentialAdded(w, entry)
}

func (s *Server) AddSDJWT(w http.ResponseWriter, r *http.Request) {
	req := AddSDJWTRequest{}
	if err := parseJSON(r, &req); err != nil {
		s.jsonErrorResponse(w, fmt.Errorf("failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	entry, err := s.wallet.AddSDJWT(req.ID, req.Credential)
	if err != nil {
		s.addError(w, err)
		return
	}
	s.credentialAdded(w, entry)
}

func (s *Server) addError(w http.ResponseWriter, err error) {
	if errors.Is(err, wallet.ErrDuplicateID) {
		s.jsonErrorResponse(w, err, http.StatusConflict)
		return
	}
	s.jsonErrorResponse(w, fmt.Errorf("failed to add credential: %v", err), http.StatusBadRequest)
}

func (s *Server) credentialAdded(w http.ResponseWriter, entry *wallet.Entry) {
	s.metrics.Credentials.Set(float64(len(s.wallet.List())))
	s.jsonResponse(w, newCredentialInfo(entry, true), http.StatusCreated)
}

func (s *Server) ListCredentials(w http.ResponseWriter, r *http.Request) {
	infos := lo.Map(s.wallet.List(), func(e *wallet.Entry, _ int) CredentialInfo {
		return newCredentialInfo(e, false)
	})
	s.jsonResponse(w, infos, http.StatusOK)
}

func (s *Server) GetCredential(w http.ResponseWriter, r *http.Request) {
	entry, err := s.wallet.Get(mux.Vars(r)["id"])
	if err != nil {
		s.jsonErrorResponse(w, err, http.StatusNotFound)
		return
	}
	s.jsonResponse(w, newCredentialInfo(entry, true), http.StatusOK)
}

func (s *Server) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Delete(mux.Vars(r)["id"]); err != nil {
		s.jsonErrorResponse(w, err, http.StatusNotFound)
		return
	}
	s.metrics.Credentials.Set(float64(len(s.wallet.List())))
	w.WriteHeader(http.StatusNoContent)
}
