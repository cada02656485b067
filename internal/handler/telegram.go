// internal/handler/telegram.go
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// WebhookPath is derived from the bot token, so only telegram knows where
// to post updates.
func WebhookPath(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "/telegram/" + hex.EncodeToString(sum[:])
}

// RegisterTelegram answers updates posted to the webhook path of token.
func RegisterTelegram(r gin.IRoutes, token string, h UpdateHandler) {
	r.POST(WebhookPath(token), func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			slog.Error("Failed to parse telegram update", "error", err)
			c.Status(http.StatusBadRequest)
			return
		}
		h.HandleUpdate(c.Request.Context(), update)
		c.Status(http.StatusOK)
	})
}
