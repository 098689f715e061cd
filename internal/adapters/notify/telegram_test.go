package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tg := NewTelegram("test-token", "chat-1", "desk-01", "")
	tg.apiURL = srv.URL
	return tg
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tg.Send(context.Background(), "⚠️ Order filled", "BTC above 100k?"))

	assert.Equal(t, "chat-1", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Contains(t, got["text"], "<b>⚠️ Order filled</b>")
	assert.Contains(t, got["text"], "BTC above 100k?")
	// Footer con el alias de la cuenta.
	assert.Contains(t, got["text"], "desk-01")
}

func TestTelegramSend_APIError(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})

	err := tg.Send(context.Background(), "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramSend_DisabledWithoutCredentials(t *testing.T) {
	tg := NewTelegram("", "", "", "")
	assert.NoError(t, tg.Send(context.Background(), "title", "body"))
}

func TestTelegramFooter_WalletFallback(t *testing.T) {
	tg := NewTelegram("tok", "chat", "", "0x1234567890abcdef")
	footer := tg.footer()
	assert.Contains(t, footer, "0x1234")
	assert.Contains(t, footer, "cdef")

	// Sin alias ni wallet no hay footer.
	assert.Empty(t, NewTelegram("tok", "chat", "", "").footer())
}
