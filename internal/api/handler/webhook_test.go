package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/webhook"
)

// recordingDispatcher captures Trigger calls and returns canned deliveries.
type recordingDispatcher struct {
	event      string
	owner      string
	deliveries []webhook.Delivery
}

func (d *recordingDispatcher) Trigger(_ context.Context, event, ownerUserID string, _ any) []webhook.Delivery {
	d.event = event
	d.owner = ownerUserID
	return d.deliveries
}

// --- Create ---

func TestWebhookCreate_InvalidURL(t *testing.T) {
	h := NewWebhook(nil, nil)
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/webhooks", map[string]any{
		"url": "not a url",
	}), &model.User{ID: validID})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestWebhookCreate_ShortSecret(t *testing.T) {
	h := NewWebhook(nil, nil)
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/webhooks", map[string]any{
		"url":    "https://example.com/hook",
		"secret": "short",
	}), &model.User{ID: validID})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Delete ---

func TestWebhookDelete_MissingID(t *testing.T) {
	h := NewWebhook(nil, nil)
	rec := httptest.NewRecorder()
	r := withUser(httptest.NewRequest(http.MethodDelete, "/api/webhooks/", nil), &model.User{ID: validID})

	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Test ---

func TestWebhookTest_ReportsDeliveries(t *testing.T) {
	d := &recordingDispatcher{deliveries: []webhook.Delivery{
		{SubscriptionID: "wh-1", URL: "https://example.com/hook", Success: true, Status: 200},
		{SubscriptionID: "wh-2", URL: "https://example.com/dead", Success: false, Status: 500, Error: "subscriber returned 500"},
	}}
	h := NewWebhook(nil, d)
	rec := httptest.NewRecorder()
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks/test", nil), &model.User{ID: validID})

	h.Test(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.EventWebhookTest, d.event)
	assert.Equal(t, validID, d.owner)

	var body map[string][]webhook.Delivery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["deliveries"], 2)
	assert.True(t, body["deliveries"][0].Success)
	assert.False(t, body["deliveries"][1].Success)
}

func TestWebhookTest_NoSubscriptions(t *testing.T) {
	h := NewWebhook(nil, &recordingDispatcher{})
	rec := httptest.NewRecorder()
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks/test", nil), &model.User{ID: validID})

	h.Test(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]webhook.Delivery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body["deliveries"])
	assert.Empty(t, body["deliveries"])
}
