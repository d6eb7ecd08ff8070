package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendText_NoTokenSimulatesSend(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	s := NewSender(server.URL, "12345", "", zap.NewNop())

	err := s.SendText(context.Background(), "+393331234567", "ciao")
	assert.NoError(t, err)
	assert.False(t, called, "simulated send must not hit the API")
}

func TestSendText_PostsMetaPayload(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody textMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer server.Close()

	s := NewSender(server.URL, "12345", "meta-token", zap.NewNop())

	err := s.SendText(context.Background(), "+393331234567", "Orari: 9-18")
	require.NoError(t, err)

	assert.Equal(t, "/12345/messages", gotPath)
	assert.Equal(t, "Bearer meta-token", gotAuth)
	assert.Equal(t, "whatsapp", gotBody.MessagingProduct)
	assert.Equal(t, "individual", gotBody.RecipientType)
	assert.Equal(t, "+393331234567", gotBody.To)
	assert.Equal(t, "text", gotBody.Type)
	assert.Equal(t, "Orari: 9-18", gotBody.Text.Body)
	assert.False(t, gotBody.Text.PreviewURL)
}

func TestSendText_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	s := NewSender(server.URL, "12345", "bad-token", zap.NewNop())

	err := s.SendText(context.Background(), "+393331234567", "ciao")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendText_TransportError(t *testing.T) {
	s := NewSender("http://127.0.0.1:1", "12345", "meta-token", zap.NewNop())

	err := s.SendText(context.Background(), "+393331234567", "ciao")
	assert.Error(t, err)
}
