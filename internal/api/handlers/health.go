package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthHandler struct {
	pool    *pgxpool.Pool
	version string
	commit  string
}

func NewHealthHandler(pool *pgxpool.Pool, version, commit string) *HealthHandler {
	return &HealthHandler{pool: pool, version: version, commit: commit}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	GitCommit string            `json:"git_commit,omitempty"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness always succeeds while the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness verifies the database is reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status:    "ok",
		Version:   h.version,
		GitCommit: h.commit,
		Checks:    map[string]string{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pool.Ping(ctx); err != nil {
			response.Status = "degraded"
			response.Checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["database"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
