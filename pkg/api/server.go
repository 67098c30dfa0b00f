// Package api exposes the bridge engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dloop-protocol/bridge-engine/pkg/apperrors"
	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
	"github.com/dloop-protocol/bridge-engine/pkg/config"
)

const (
	defaultHTTPMiddlewareTimeout = 60 * time.Second
	defaultHTTPReadTimeout       = 15 * time.Second
	defaultHTTPWriteTimeout      = 15 * time.Second
	defaultHTTPIdleTimeout       = 60 * time.Second
)

// Readiness reports whether the process can serve traffic.
type Readiness func() bool

// Server wires the controller into a chi router.
type Server struct {
	controller *bridge.Controller
	logger     *zap.Logger
	ready      Readiness
}

// NewServer creates the API server around a controller.
func NewServer(controller *bridge.Controller, ready Readiness, logger *zap.Logger) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Server{controller: controller, logger: logger, ready: ready}
}

// NewHTTPServer builds the http.Server serving the router.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultHTTPReadTimeout,
		WriteTimeout: defaultHTTPWriteTimeout,
		IdleTimeout:  defaultHTTPIdleTimeout,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router(monitoring config.MonitoringConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultHTTPMiddlewareTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transfers/outbound", s.handleInitiateOutbound)
		r.Get("/transfers", s.handleListTransfers)
		r.Get("/transfers/{id}", s.handleGetTransfer)
		r.Get("/transfers/{id}/completed", s.handleIsCompleted)
		r.Get("/transfers/{id}/approvals", s.handleGetApprovals)
		r.Post("/transfers/{id}/approvals", s.handleApproveInbound)
		r.Post("/transfers/{id}/finalize", s.handleFinalize)
		r.Post("/transfers/{id}/cancel", s.handleCancel)
		r.Post("/transfers/{id}/execute-timelock", s.handleExecuteTimelock)

		r.Get("/validators", s.handleGetValidators)
		r.Get("/escrow/{token}", s.handleEscrowBalance)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/tokens/{token}", s.handleTokenStats)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/pause", s.handlePause)
			r.Post("/unpause", s.handleUnpause)
			r.Post("/validators", s.handleAddValidator)
			r.Post("/validators/remove", s.handleRemoveValidator)
			r.Post("/threshold", s.handleUpdateThreshold)
			r.Post("/mappings", s.handleRegisterMapping)
			r.Post("/mappings/{token}/limit", s.handleSetTransferLimit)
			r.Post("/mappings/{token}/deactivate", s.handleDeactivateMapping)
			r.Post("/cooldown", s.handleSetCooldown)
			r.Post("/timelock-duration", s.handleSetTimelockDuration)
		})
	})

	return r
}

type outboundRequest struct {
	Sender        string `json:"sender"`
	Token         string `json:"token"`
	Amount        string `json:"amount"`
	Recipient     string `json:"recipient"`
	TargetNetwork string `json:"target_network"`
}

func (s *Server) handleInitiateOutbound(w http.ResponseWriter, r *http.Request) {
	var req outboundRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}

	transfer, err := s.controller.InitiateOutbound(r.Context(), req.Sender, req.Token, amount, req.Recipient, req.TargetNetwork)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, transferResponse(transfer))
}

type approvalRequest struct {
	Validator     string `json:"validator"`
	Token         string `json:"token"`
	Amount        string `json:"amount"`
	Recipient     string `json:"recipient"`
	SourceNetwork string `json:"source_network"`
	SourceSender  string `json:"source_sender"`
}

func (s *Server) handleApproveInbound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req approvalRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}

	err := s.controller.ApproveInbound(r.Context(), req.Validator, id, req.Token, amount, req.Recipient, req.SourceNetwork, req.SourceSender)
	if err != nil {
		s.writeError(w, err)
		return
	}

	count, err := s.controller.GetTransferApprovalCount(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "approvals": count})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller.Finalize(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "status": bridge.StatusCompleted})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.Cancel(r.Context(), req.Caller, id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "status": bridge.StatusCancelled})
}

func (s *Server) handleExecuteTimelock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller.ExecuteTimelockTransfer(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "status": bridge.StatusCompleted})
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, err := s.controller.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transferResponse(transfer))
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transfers, err := s.controller.ListTransfers(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]map[string]any, len(transfers))
	for i, t := range transfers {
		out[i] = transferResponse(t)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfers": out})
}

func (s *Server) handleIsCompleted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	completed, err := s.controller.IsTransferCompleted(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "completed": completed})
}

func (s *Server) handleGetApprovals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	approvals, err := s.controller.GetTransferApprovals(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]map[string]any, len(approvals))
	for i, a := range approvals {
		out[i] = map[string]any{
			"validator":      a.Validator,
			"token":          a.Token,
			"amount":         a.Amount.String(),
			"recipient":      a.Recipient,
			"source_network": a.SourceNetwork,
			"created_at":     a.CreatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id, "count": len(out), "approvals": out})
}

func (s *Server) handleGetValidators(w http.ResponseWriter, r *http.Request) {
	validators, err := s.controller.Validators(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	threshold, err := s.controller.ValidatorThreshold(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"validators": validators, "threshold": threshold})
}

func (s *Server) handleEscrowBalance(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	balance, err := s.controller.EscrowBalance(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"token": token, "balance": balance.String()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.controller.GetTransferStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTokenStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.controller.GetTokenTransferStats(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.Pause(r.Context(), req.Caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.Unpause(r.Context(), req.Caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"paused": false})
}

type validatorRequest struct {
	Caller    string `json:"caller"`
	Validator string `json:"validator"`
}

func (s *Server) handleAddValidator(w http.ResponseWriter, r *http.Request) {
	var req validatorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.AddValidator(r.Context(), req.Caller, req.Validator); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"validator": req.Validator})
}

func (s *Server) handleRemoveValidator(w http.ResponseWriter, r *http.Request) {
	var req validatorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.RemoveValidator(r.Context(), req.Caller, req.Validator); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"validator": req.Validator})
}

type thresholdRequest struct {
	Caller    string `json:"caller"`
	Threshold int    `json:"threshold"`
}

func (s *Server) handleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.UpdateValidatorThreshold(r.Context(), req.Caller, req.Threshold); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"threshold": req.Threshold})
}

type mappingRequest struct {
	Caller           string `json:"caller"`
	SourceToken      string `json:"source_token"`
	CounterpartToken string `json:"counterpart_token"`
	Limit            string `json:"limit"`
}

func (s *Server) handleRegisterMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if !s.decode(w, r, &req) {
		return
	}
	limit, ok := parseOptionalAmount(req.Limit)
	if !ok {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}
	if err := s.controller.RegisterTokenMapping(r.Context(), req.Caller, req.SourceToken, req.CounterpartToken, limit); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"source_token":      req.SourceToken,
		"counterpart_token": req.CounterpartToken,
	})
}

type limitRequest struct {
	Caller string `json:"caller"`
	Limit  string `json:"limit"`
}

func (s *Server) handleSetTransferLimit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req limitRequest
	if !s.decode(w, r, &req) {
		return
	}
	limit, ok := parseOptionalAmount(req.Limit)
	if !ok {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}
	if err := s.controller.SetTokenTransferLimit(r.Context(), req.Caller, token, limit); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"token": token, "limit": req.Limit})
}

func (s *Server) handleDeactivateMapping(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.controller.DeactivateTokenMapping(r.Context(), req.Caller, token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"token": token, "active": false})
}

type durationRequest struct {
	Caller   string `json:"caller"`
	Duration string `json:"duration"`
}

func (s *Server) handleSetCooldown(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}
	if err := s.controller.SetCooldown(r.Context(), req.Caller, d); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cooldown": d.String()})
}

func (s *Server) handleSetTimelockDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		s.writeError(w, bridge.ErrInvalidAmount)
		return
	}
	if err := s.controller.SetTimelockDuration(r.Context(), req.Caller, d); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"timelock_duration": d.String()})
}

func transferResponse(t *bridge.Transfer) map[string]any {
	resp := map[string]any{
		"id":             t.ID,
		"direction":      t.Direction,
		"status":         t.Status,
		"source_token":   t.SourceToken,
		"target_token":   t.TargetToken,
		"amount":         "0",
		"sender":         t.Sender,
		"recipient":      t.Recipient,
		"source_network": t.SourceNetwork,
		"target_network": t.TargetNetwork,
		"created_at":     t.CreatedAt,
		"updated_at":     t.UpdatedAt,
	}
	if t.Amount != nil {
		resp["amount"] = t.Amount.String()
	}
	if t.TimelockReleaseAt != nil {
		resp["timelock_release_at"] = t.TimelockReleaseAt
	}
	if t.CompletedAt != nil {
		resp["completed_at"] = t.CompletedAt
	}
	return resp
}

func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	amount, ok := new(big.Int).SetString(s, 10)
	return amount, ok
}

// parseOptionalAmount treats empty as nil, which callers interpret as "no limit".
func parseOptionalAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, true
	}
	return parseAmount(s)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		status = svcErr.StatusCode()
	} else {
		s.logger.Error("Unhandled error", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
