package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/internal/run"
)

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0 min 12.50 sec", FormatElapsed(12500*time.Millisecond))
	assert.Equal(t, "3 min 4.00 sec", FormatElapsed(184*time.Second))
}

func TestWebhookPostsSummary(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	stats := run.Stats{
		RunID:              "r1",
		StartedAt:          time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC),
		Duration:           75 * time.Second,
		ClientsProcessed:   7,
		DocumentsGenerated: 9,
	}
	require.NoError(t, NewWebhookNotifier(srv.URL).Report(context.Background(), stats))

	assert.Equal(t, "2025-03-03 06:00:00", got["FECHA"])
	assert.Equal(t, "1 min 15.00 sec", got["TIEMPO_EJECUCION"])
	assert.EqualValues(t, 7, got["CLIENTES_ATENDIDOS"])
}

func TestWebhookSkipsWeekends(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	saturday := run.Stats{StartedAt: time.Date(2025, 3, 8, 6, 0, 0, 0, time.UTC)}
	require.NoError(t, NewWebhookNotifier(srv.URL).Report(context.Background(), saturday))
	assert.False(t, called)
}

func TestWebhookNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	stats := run.Stats{StartedAt: time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC)}
	err := NewWebhookNotifier(srv.URL).Report(context.Background(), stats)
	assert.ErrorIs(t, err, ErrNon2xx)

	assert.Error(t, NewWebhookNotifier("").Report(context.Background(), stats))
}
