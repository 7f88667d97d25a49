package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookHandler_HandleUpdate(t *testing.T) {
	t.Run("accepts updates with no relay configured", func(t *testing.T) {
		env := newTestEnv(t)

		rr := postJSON(env.webhook.HandleUpdate, "/webhook",
			`{"update_id":1,"message":{"message_id":1,"chat":{"id":42},"text":"hello"}}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		env := newTestEnv(t)

		rr := postJSON(env.webhook.HandleUpdate, "/webhook", `{"update_id":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
