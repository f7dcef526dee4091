package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"garasiku/internal/intake"
	"garasiku/internal/util"
	"garasiku/internal/webhooktoken"
	"garasiku/pkg/domain"
	"garasiku/pkg/store"
)

// Server exposes the inbound webhook and the public catalog lookup over
// HTTP. The message gateway posts each WhatsApp delivery to the webhook with
// a tenant-scoped bearer token; the catalog route is unauthenticated.
type Server struct {
	pipeline *intake.Pipeline
	verifier *webhooktoken.Verifier
	vehicles store.VehicleStore
}

// New constructs the HTTP server.
func New(pipeline *intake.Pipeline, verifier *webhooktoken.Verifier, vehicles store.VehicleStore) *Server {
	return &Server{pipeline: pipeline, verifier: verifier, vehicles: vehicles}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/webhook/whatsapp", s.handleWebhook)
	mux.HandleFunc("GET /catalog/{tenant}/{slug}", s.handleCatalogVehicle)
	return util.WithRequestLog("intake", mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type webhookResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token, ok := webhooktoken.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	tenantID, err := s.verifier.VerifyTenant(token)
	if err != nil {
		slog.Warn("webhook token rejected", "err", err)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var msg domain.InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(msg.User) == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}
	// The token subject is authoritative for the tenant. A body tenantId,
	// if present, must agree.
	if msg.TenantID != "" && msg.TenantID != tenantID {
		writeError(w, http.StatusForbidden, "tenant mismatch")
		return
	}
	msg.TenantID = tenantID

	reply := s.pipeline.Handle(r.Context(), msg)
	writeJSON(w, http.StatusOK, webhookResponse{Reply: reply})
}

func (s *Server) handleCatalogVehicle(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")
	slug := r.PathValue("slug")
	vehicle, found, err := s.vehicles.GetBySlug(r.Context(), tenantID, slug)
	if err != nil {
		slog.Error("catalog lookup", "tenant", tenantID, "slug", slug, "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
