package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	updates []tgbotapi.Update
}

func (r *recordingHandler) HandleUpdate(_ context.Context, u tgbotapi.Update) {
	r.updates = append(r.updates, u)
}

func TestWebhookPath(t *testing.T) {
	p := WebhookPath("123:abc")
	assert.True(t, strings.HasPrefix(p, "/telegram/"))
	assert.Len(t, strings.TrimPrefix(p, "/telegram/"), 64)
	assert.NotContains(t, p, "123:abc")
	assert.Equal(t, p, WebhookPath("123:abc"))
	assert.NotEqual(t, p, WebhookPath("123:abd"))
}

func TestTelegramWebhookOnlyOnSecretPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := &recordingHandler{}
	RegisterTelegram(router, "123:abc", h)

	post := func(path, body string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w.Code
	}
	update := `{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/help"}}`

	assert.Equal(t, http.StatusNotFound, post("/telegram", update))
	assert.Equal(t, http.StatusNotFound, post("/telegram/"+strings.Repeat("0", 64), update))
	assert.Empty(t, h.updates)

	assert.Equal(t, http.StatusOK, post(WebhookPath("123:abc"), update))
	require.Len(t, h.updates, 1)
	assert.Equal(t, 7, h.updates[0].UpdateID)
	assert.Equal(t, int64(42), h.updates[0].Message.Chat.ID)

	assert.Equal(t, http.StatusBadRequest, post(WebhookPath("123:abc"), "{"))
	assert.Len(t, h.updates, 1)
}
