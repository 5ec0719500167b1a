package whatsapp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/service/commands"
	client "github.com/mamadbah2/farmboard/pkg/clients/whatsapp"
)

type fakeClient struct {
	mu   sync.Mutex
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type fakeDispatcher struct {
	calls []models.Command
}

func (f *fakeDispatcher) HandleCommand(_ context.Context, cmd models.Command, _ string) (string, error) {
	f.calls = append(f.calls, cmd)
	if cmd.Type == models.CommandUnknown {
		return "", commands.ErrUnsupportedCommand
	}
	return "ok " + string(cmd.Type), nil
}

func textMessage(id, from, body string) models.InboundMessage {
	return models.InboundMessage{ID: id, From: from, Type: "text", Text: &models.TextContent{Body: body}}
}

func payload(msgs ...models.InboundMessage) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{Field: "messages", Value: models.WebhookValue{Messages: msgs}}},
		}},
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "verify-me"}, &fakeClient{}, &fakeDispatcher{}, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "verify-me", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "42")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("unsubscribe", "verify-me", "42")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("", "", "")
	assert.Error(t, err)
}

func TestHandleWebhook(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, dispatcher, nil)

	button := models.InboundMessage{
		ID: "wamid.3", From: "221", Type: "interactive",
		Interactive: &models.InteractiveContent{Type: "button_reply", ButtonReply: &models.ReplyOption{ID: "/tasks", Title: "Today"}},
	}
	image := models.InboundMessage{ID: "wamid.4", From: "221", Type: "image"}

	err := svc.HandleWebhook(context.Background(), payload(
		textMessage("wamid.1", "221", "/expense 1 fuel 10"),
		textMessage("wamid.2", "221", "what?"),
		button,
		image,
	))
	require.NoError(t, err)

	require.Len(t, wa.sent, 3)
	assert.Equal(t, "ok expense", wa.sent[0].Body)
	assert.Contains(t, wa.sent[1].Body, "Unknown command.")
	assert.Equal(t, "ok tasks", wa.sent[2].Body)
	assert.Equal(t, "221", wa.sent[0].To)

	t.Run("redelivery-is-ignored", func(t *testing.T) {
		require.NoError(t, svc.HandleWebhook(context.Background(), payload(textMessage("wamid.1", "221", "/expense 1 fuel 10"))))
		assert.Len(t, dispatcher.calls, 3)
		assert.Len(t, wa.sent, 3)
	})

	t.Run("send-failure", func(t *testing.T) {
		wa.err = errors.New("network down")
		err := svc.HandleWebhook(context.Background(), payload(textMessage("wamid.9", "221", "/tasks")))
		assert.ErrorContains(t, err, "network down")
	})
}

func TestRecentMessages(t *testing.T) {
	r := newRecentMessages(2)
	assert.False(t, r.markSeen("a"))
	assert.True(t, r.markSeen("a"))
	assert.False(t, r.markSeen("b"))
	assert.False(t, r.markSeen("c"))
	assert.False(t, r.markSeen("a"), "oldest id evicted")
	assert.False(t, r.markSeen(""))
	assert.False(t, r.markSeen(""))
}
