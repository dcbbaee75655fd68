package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/dto"
)

func trigger() *dto.ImmediateTrigger {
	return &dto.ImmediateTrigger{
		VideoID:     "vid-1",
		CreatorID:   "42",
		Platform:    "youtube",
		TriggerType: "immediate",
		ContentURL:  "https://cdn.example/v.mp4",
		CallbackURL: "https://hub.example/api/automation/post-status",
	}
}

func TestTriggerImmediatePost(t *testing.T) {
	var got dto.ImmediateTrigger
	var gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Automation-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &EngineClient{webhookURL: server.URL, sharedSecret: "s3cret", httpClient: &http.Client{Timeout: time.Second}}
	require.NoError(t, client.TriggerImmediatePost(context.Background(), trigger()))
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "vid-1", got.VideoID)
	assert.Equal(t, "immediate", got.TriggerType)
}

func TestTriggerImmediatePost_EngineRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := &EngineClient{webhookURL: server.URL, httpClient: &http.Client{Timeout: time.Second}}
	err := client.TriggerImmediatePost(context.Background(), trigger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestTriggerImmediatePost_EngineUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := &EngineClient{webhookURL: server.URL, httpClient: &http.Client{Timeout: time.Second}}
	require.Error(t, client.TriggerImmediatePost(context.Background(), trigger()))
}

func TestTriggerImmediatePost_NoWebhookConfigured(t *testing.T) {
	client := &EngineClient{httpClient: &http.Client{Timeout: time.Second}}
	require.Error(t, client.TriggerImmediatePost(context.Background(), trigger()))
}
