package whatsapp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shulebooks/shulebooks/internal/providers/whatsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCloudAPISendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "whatsapp", payload["messaging_product"])
		assert.Equal(t, "256700000001", payload["to"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.test.1"}},
		})
	}))
	defer srv.Close()

	sender := whatsapp.NewCloudAPI(srv.URL, "token-abc", "12345", zap.NewNop())
	id, err := sender.SendText(context.Background(), "256700000001", "School fees reminder")
	require.NoError(t, err)
	assert.Equal(t, "wamid.test.1", id)
}

func TestCloudAPISendTextRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid token", "code": 190},
		})
	}))
	defer srv.Close()

	sender := whatsapp.NewCloudAPI(srv.URL, "expired", "12345", zap.NewNop())
	_, err := sender.SendText(context.Background(), "256700000001", "hello")
	assert.ErrorIs(t, err, whatsapp.ErrSendFailed)
}

func TestNoopSender(t *testing.T) {
	sender := whatsapp.NewNoop(zap.NewNop())

	id, err := sender.SendText(context.Background(), "256700000001", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = sender.SendText(context.Background(), "", "hello")
	assert.ErrorIs(t, err, whatsapp.ErrEmptyRecipient)
}
