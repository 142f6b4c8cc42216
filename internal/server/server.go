package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kokukuma/dcql-wallet/internal/wallet"
)

const maxBodyBytes = 1 << 20

type Server struct {
	wallet   *wallet.Wallet
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *Metrics
}

func NewServer(w *wallet.Wallet, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	return &Server{
		wallet:   w,
		logger:   logger,
		registry: registry,
		metrics:  NewMetrics(registry),
	}
}

// Handler returns the HTTP API with CORS restricted to allowedOrigins.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET", "DELETE"}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowCredentials(),
	))

	r.HandleFunc("/credentials", s.ListCredentials).Methods("GET", "OPTIONS")
	r.HandleFunc("/credentials/mdoc", s.AddMdoc).Methods("POST", "OPTIONS")
	r.HandleFunc("/credentials/sdjwt", s.AddSDJWT).Methods("POST", "OPTIONS")
	r.HandleFunc("/credentials/{id}", s.GetCredential).Methods("GET", "OPTIONS")
	r.HandleFunc("/credentials/{id}", s.DeleteCredential).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/dcql/match", s.Match).Methods("POST", "OPTIONS")

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")

	accessLog := zap.NewStdLog(s.logger.Named("access")).Writer()
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
	)(handlers.CombinedLoggingHandler(accessLog, r))
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseJSON(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return errors.New("No request given")
	}

	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func readBody(r *http.Request) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errors.New("No request given")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, d interface{}, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	s.logger.Debug("response", zap.Int("status", c), zap.ByteString("body", dj))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	fmt.Fprintf(w, "%s", dj)
}

func (s *Server) jsonErrorResponse(w http.ResponseWriter, e error, c int) {
	if c >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(e), zap.Int("status", c))
	} else {
		s.logger.Info("request rejected", zap.Error(e), zap.Int("status", c))
	}
	s.jsonResponse(w, ErrorResponse{Error: e.Error()}, c)
}

func since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
