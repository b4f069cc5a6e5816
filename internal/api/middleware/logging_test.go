package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/auth"
)

func loggedRequest(t *testing.T, status int, session *auth.Session) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("body"))
	})
	handler := CorrelationID(logger)(RequestLogging(logger)(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/communities", nil)
	req.RemoteAddr = "203.0.113.9:48211"
	if session != nil {
		req = req.WithContext(WithSession(req.Context(), session))
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestRequestLoggingFields(t *testing.T) {
	session := &auth.Session{ID: uuid.NewString(), UserID: uuid.New(), Role: auth.RoleEditor}
	line := loggedRequest(t, http.StatusOK, session)

	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/api/v1/communities", line["path"])
	assert.Equal(t, "203.0.113.9", line["remote_ip"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, float64(4), line["bytes_out"])
	assert.NotEmpty(t, line["request_id"])
	assert.Contains(t, line, "duration_ms")
	assert.Equal(t, session.UserID.String(), line["user_id"])
	assert.Equal(t, string(auth.RoleEditor), line["role"])
}

func TestRequestLoggingLevelTracksStatus(t *testing.T) {
	assert.Equal(t, "warn", loggedRequest(t, http.StatusNotFound, nil)["level"])
	assert.Equal(t, "error", loggedRequest(t, http.StatusBadGateway, nil)["level"])
}

func TestRequestLoggingAnonymousOmitsIdentity(t *testing.T) {
	line := loggedRequest(t, http.StatusOK, nil)
	assert.NotContains(t, line, "user_id")
	assert.NotContains(t, line, "role")
}
