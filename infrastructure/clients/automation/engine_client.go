package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"creator-hub/domain/dto"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

// EngineClient pushes immediate-post triggers to the workflow engine's
// webhook. The engine owns all posting work; this client only wakes it up, so
// the payload carries content metadata and never credentials.
type EngineClient struct {
	webhookURL   string
	sharedSecret string
	httpClient   *http.Client
}

func NewEngineClient(webhookURL, sharedSecret string) repository.IAutomationEngine {
	return &EngineClient{
		webhookURL:   webhookURL,
		sharedSecret: sharedSecret,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *EngineClient) TriggerImmediatePost(ctx context.Context, trigger *dto.ImmediateTrigger) error {
	if c.webhookURL == "" {
		return fmt.Errorf("automation webhook url not configured")
	}
	payload, err := json.Marshal(trigger)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sharedSecret != "" {
		req.Header.Set("X-Automation-Secret", c.sharedSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"video_id": trigger.VideoID,
		}).Error("automation engine unreachable")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		logger.GetLogger().WithFields(map[string]interface{}{
			"status":   resp.StatusCode,
			"body":     string(body),
			"video_id": trigger.VideoID,
		}).Error("automation engine rejected trigger")
		return fmt.Errorf("automation engine status %d", resp.StatusCode)
	}
	logger.GetLogger().WithField("video_id", trigger.VideoID).Info("Immediate post trigger dispatched")
	return nil
}
