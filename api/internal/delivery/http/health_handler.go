package http

import (
	"context"
	"net/http"
	"time"

	"github.com/reacthost/console/api/internal/core/domain"
)

type HealthHandler struct {
	snapshots domain.SnapshotStore
}

func NewHealthHandler(snapshots domain.SnapshotStore) *HealthHandler {
	return &HealthHandler{snapshots: snapshots}
}

// Check reports whether the snapshot backend answers.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	// 🛡️ SLA: Use a tight timeout for health checks
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.snapshots.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unhealthy: snapshot backend unreachable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("healthy"))
}

// Ping is the liveness probe. It never touches dependencies.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
