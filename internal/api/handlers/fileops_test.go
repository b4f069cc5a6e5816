package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/metrics"
)

func fileOpsRequest(t *testing.T, handler *FileOpsHandler, session *auth.Session, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/file-operations"+query, nil)
	if session != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), session))
	}
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	return rec
}

func roleSession(role auth.Role) *auth.Session {
	communityID := uuid.New()
	session := &auth.Session{ID: uuid.NewString(), UserID: uuid.New(), Role: role, CommunityID: &communityID}
	if role == auth.RoleSuperAdmin {
		session.CommunityID = nil
	}
	return session
}

func TestFileOpsRequiresAuthentication(t *testing.T) {
	handler := NewFileOpsHandler(metrics.NewFileOpsCollector())
	rec := fileOpsRequest(t, handler, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFileOpsRequiresMetricsRole(t *testing.T) {
	handler := NewFileOpsHandler(metrics.NewFileOpsCollector())

	for _, role := range []auth.Role{auth.RoleEditor, auth.RoleViewer} {
		rec := fileOpsRequest(t, handler, roleSession(role), "")
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %s", role)
	}
	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleSuperAdmin} {
		rec := fileOpsRequest(t, handler, roleSession(role), "")
		assert.Equal(t, http.StatusOK, rec.Code, "role %s", role)
	}
}

func TestFileOpsSnapshotShape(t *testing.T) {
	collector := metrics.NewFileOpsCollector()
	collector.Record(metrics.OpUpload, true, 1024, 12.5)
	collector.Record(metrics.OpUpload, false, 0, 99.0)
	handler := NewFileOpsHandler(collector)
	handler.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }

	rec := fileOpsRequest(t, handler, roleSession(auth.RoleSuperAdmin), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]struct {
			Count       int64     `json:"count"`
			Failures    int64     `json:"failures"`
			TotalBytes  int64     `json:"totalBytes"`
			Durations   []float64 `json:"durations"`
			P95Duration float64   `json:"p95Duration"`
		} `json:"data"`
		Timestamp time.Time `json:"timestamp"`
		Message   string    `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	upload := body.Data["upload"]
	assert.Equal(t, int64(2), upload.Count)
	assert.Equal(t, int64(1), upload.Failures)
	assert.Equal(t, int64(1024), upload.TotalBytes)
	assert.Len(t, upload.Durations, 2)
	assert.Equal(t, 99.0, upload.P95Duration)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), body.Timestamp)
	assert.Empty(t, body.Message)
}

func TestFileOpsReset(t *testing.T) {
	collector := metrics.NewFileOpsCollector()
	collector.Record(metrics.OpAccess, true, 10, 1.0)
	handler := NewFileOpsHandler(collector)

	rec := fileOpsRequest(t, handler, roleSession(auth.RoleAdmin), "?reset=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data    map[string]json.RawMessage `json:"data"`
		Message string                     `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Data, "access", "reset response reports the pre-reset counters")
	assert.Equal(t, "file operation metrics reset", body.Message)

	assert.Empty(t, collector.Snapshot())
}
