package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health handles GET /health for load balancers.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// APIHealth handles GET /api/health and includes a store ping.
func (h *RecuerdoHandler) APIHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		log.Printf("⚠️  Health check: store ping failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "DEGRADED",
			Message: "El almacenamiento no responde",
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: "API de recuerdos funcionando"})
}
