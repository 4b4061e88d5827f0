package main

import (
	"encoding/json"
	"net/http"
	"time"

	"token-factory/internal/domain"
	"token-factory/internal/factory"
	"token-factory/internal/ledger"
	"token-factory/internal/observability"
)

// routes builds the HTTP API.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Invocations
	mux.HandleFunc("POST /v1/create-token", s.handleCreateToken)
	mux.HandleFunc("POST /v1/set-metadata", s.handleSetMetadata)
	mux.HandleFunc("POST /v1/mint-tokens", s.handleMintTokens)
	mux.HandleFunc("POST /v1/update-fees", s.handleUpdateFees)

	// Reads
	mux.HandleFunc("GET /v1/tokens", s.handleListTokens)
	mux.HandleFunc("GET /v1/tokens/{address}", s.handleTokenInfo)
	mux.HandleFunc("GET /v1/tokens/{address}/balances/{holder}", s.handleBalance)
	mux.HandleFunc("GET /v1/tokens/{address}/events", s.handleTokenEvents)
	mux.HandleFunc("GET /v1/analytics/fee-revenue", s.handleFeeRevenue)

	// Event feed
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	// Operational endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// InvocationResponse is the JSON response for a committed invocation.
type InvocationResponse struct {
	TokenAddress string                `json:"token_address,omitempty"`
	Event        *domain.IssuanceEvent `json:"event"`
}

// ErrorResponse is the JSON body of a failed invocation.
type ErrorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateTokenInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.submit(w, r, domain.Invocation{Procedure: domain.ProcedureCreateToken, Create: &in})
}

func (s *Server) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	var in domain.SetMetadataInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.submit(w, r, domain.Invocation{Procedure: domain.ProcedureSetMetadata, SetMetadata: &in})
}

func (s *Server) handleMintTokens(w http.ResponseWriter, r *http.Request) {
	var in domain.MintTokensInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.submit(w, r, domain.Invocation{Procedure: domain.ProcedureMintTokens, Mint: &in})
}

func (s *Server) handleUpdateFees(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateFeesInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.submit(w, r, domain.Invocation{Procedure: domain.ProcedureUpdateFees, UpdateFees: &in})
}

// submit runs one invocation and writes the result or its error mapping.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, inv domain.Invocation) {
	result, err := s.ledger.Submit(r.Context(), inv)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InvocationResponse{
		TokenAddress: result.TokenAddress,
		Event:        result.Event,
	})
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	records := s.ledger.Records()
	if records == nil {
		records = []*domain.CreationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.ledger.TokenInfo(r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// BalanceResponse is the JSON response for a balance query.
type BalanceResponse struct {
	TokenAddress string `json:"token_address"`
	Holder       string `json:"holder"`
	Balance      uint64 `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	holder := r.PathValue("holder")

	balance, err := s.ledger.Balance(address, holder)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		TokenAddress: address,
		Holder:       holder,
		Balance:      balance,
	})
}

// handleTokenEvents serves the committed event history of one token from
// the analytics store.
func (s *Server) handleTokenEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.stores.eventStore.GetByToken(r.Context(), r.PathValue("address"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Kind:  string(factory.KindInternal),
			Error: err.Error(),
		})
		return
	}
	if events == nil {
		events = []*domain.IssuanceEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// FeeRevenueResponse is the JSON response for the fee revenue query.
type FeeRevenueResponse struct {
	TotalFeeRevenue uint64 `json:"total_fee_revenue"`
}

func (s *Server) handleFeeRevenue(w http.ResponseWriter, r *http.Request) {
	total, err := s.stores.eventStore.TotalFeeRevenue(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Kind:  string(factory.KindInternal),
			Error: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, FeeRevenueResponse{TotalFeeRevenue: total})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string         `json:"status"`
	Uptime      string         `json:"uptime"`
	FeedClients int            `json:"feed_clients"`
	Factory     ledger.Summary `json:"factory"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		FeedClients: s.hub.ClientCount(),
		Factory:     s.ledger.Summarize(),
	})
}

// decodeJSON reads the request body; on failure writes a validation error
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Kind:  string(factory.KindValidation),
			Error: "malformed request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps a procedure error onto its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	kind := factory.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case factory.KindFee:
		status = http.StatusPaymentRequired
	case factory.KindAuthorization:
		status = http.StatusForbidden
	case factory.KindValidation:
		status = http.StatusBadRequest
	case factory.KindNotFound:
		status = http.StatusNotFound
	case factory.KindStateConflict:
		status = http.StatusConflict
	}

	writeJSON(w, status, ErrorResponse{Kind: string(kind), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
