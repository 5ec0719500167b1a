package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	client "github.com/mamadbah2/farmboard/pkg/clients/whatsapp"
)

type fakeMessaging struct {
	payloads []models.WebhookPayload
	sent     []models.OutboundMessageRequest
	webhook  error
	send     error
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	f.payloads = append(f.payloads, payload)
	return f.webhook
}

func (f *fakeMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.send
}

func webhookEngine(m *fakeMessaging) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(m, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/messages", h.SendMessage)
	return r
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookVerify(t *testing.T) {
	r := webhookEngine(&fakeMessaging{})

	t.Run("echoes-challenge", func(t *testing.T) {
		rec := call(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("wrong-token", func(t *testing.T) {
		rec := call(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestWebhookReceive(t *testing.T) {
	const body = `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"221","id":"wamid.1","type":"text","text":{"body":"/tasks"}}]}}]}]}`

	t.Run("dispatches", func(t *testing.T) {
		m := &fakeMessaging{}
		rec := call(webhookEngine(m), http.MethodPost, "/webhook", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, m.payloads, 1)
		assert.Equal(t, "/tasks", m.payloads[0].Entry[0].Changes[0].Value.Messages[0].Body())
	})

	t.Run("failure-asks-for-redelivery", func(t *testing.T) {
		m := &fakeMessaging{webhook: errors.New("store down")}
		rec := call(webhookEngine(m), http.MethodPost, "/webhook", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("other-object-ignored", func(t *testing.T) {
		m := &fakeMessaging{}
		rec := call(webhookEngine(m), http.MethodPost, "/webhook", `{"object":"page","entry":[]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, m.payloads)
	})

	t.Run("malformed", func(t *testing.T) {
		rec := call(webhookEngine(&fakeMessaging{}), http.MethodPost, "/webhook", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		m := &fakeMessaging{}
		rec := call(webhookEngine(m), http.MethodPost, "/messages", `{"to":"221","message":"Irrigate field B"}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, m.sent, 1)
		assert.Equal(t, "Irrigate field B", m.sent[0].Message)
	})

	t.Run("missing-recipient", func(t *testing.T) {
		rec := call(webhookEngine(&fakeMessaging{}), http.MethodPost, "/messages", `{"message":"hi"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejected-recipient", func(t *testing.T) {
		m := &fakeMessaging{send: &client.APIError{StatusCode: http.StatusBadRequest, Code: 131030, Message: "Recipient phone number not in allowed list"}}
		rec := call(webhookEngine(m), http.MethodPost, "/messages", `{"to":"221","message":"hi"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "not in allowed list")
	})

	t.Run("api-down", func(t *testing.T) {
		m := &fakeMessaging{send: &client.APIError{StatusCode: http.StatusServiceUnavailable}}
		rec := call(webhookEngine(m), http.MethodPost, "/messages", `{"to":"221","message":"hi"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
