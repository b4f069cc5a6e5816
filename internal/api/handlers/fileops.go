package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/metrics"
)

// FileOpsHandler exposes the file-operations counters to admins.
type FileOpsHandler struct {
	collector *metrics.FileOpsCollector
	now       func() time.Time
}

func NewFileOpsHandler(collector *metrics.FileOpsCollector) *FileOpsHandler {
	return &FileOpsHandler{collector: collector, now: time.Now}
}

type fileOpsResponse struct {
	Data      map[metrics.Operation]metrics.OperationSnapshot `json:"data"`
	Timestamp time.Time                                       `json:"timestamp"`
	Message   string                                          `json:"message,omitempty"`
}

// Get returns a snapshot of all file-operation counters. With ?reset=true
// the counters are snapshotted and then cleared in one step, so no sample
// recorded before the call is lost or double-reported.
func (h *FileOpsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil {
		respond.Unauthorized(w, r, nil)
		return
	}
	if auth.Capability(session.Role, auth.ActionViewMetrics) == auth.ScopeNone {
		respond.Forbidden(w, r, nil)
		return
	}

	response := fileOpsResponse{Timestamp: h.now().UTC()}
	if r.URL.Query().Get("reset") == "true" {
		response.Data = h.collector.SnapshotAndReset()
		response.Message = "file operation metrics reset"
	} else {
		response.Data = h.collector.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
