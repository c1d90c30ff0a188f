package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/models"
	"golang.org/x/time/rate"
)

// Client relays notifications through the Supabase Realtime broadcast API.
// It uses the service role key so no WebSocket connection is needed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// limiter throttles outbound broadcasts so bursts of messages do not
	// exhaust the project's realtime quota
	limiter *rate.Limiter
}

// NewClient creates a new Supabase client with the given configuration.
func NewClient(cfg *config.Config) *Client {
	rps := cfg.SupabaseRPS
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		baseURL: cfg.SupabaseURL,
		apiKey:  cfg.SupabaseKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// Enabled reports whether the relay has credentials to talk to.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.apiKey != ""
}

func (c *Client) Name() string { return "supabase" }

// PublishNotification broadcasts n on the recipient's private topic.
func (c *Client) PublishNotification(ctx context.Context, n models.Notification, msg models.Message) error {
	payload := map[string]interface{}{
		"notification_id": n.ID,
		"message": map[string]interface{}{
			"message_id":   msg.ID,
			"conversation": msg.ConversationID,
			"sender":       msg.SenderID,
			"message_body": msg.Body,
			"sent_at":      msg.CreatedAt,
		},
		"created_at": n.CreatedAt,
	}

	log.Printf("[Broadcast] Notification %d for user:%s", n.ID, n.UserID)
	return c.broadcast(ctx, fmt.Sprintf("user:%s", n.UserID), "notification", payload)
}

// broadcast sends a single Supabase Realtime Broadcast event.
func (c *Client) broadcast(ctx context.Context, topic, event string, payload interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("broadcast throttled: %w", err)
	}

	body := map[string]interface{}{
		"messages": []map[string]interface{}{
			{
				"topic":   topic,
				"event":   event,
				"payload": payload,
			},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	url := fmt.Sprintf("%s/realtime/v1/api/broadcast", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create broadcast request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		log.Printf("[Broadcast] Event failed: status=%d body=%s", resp.StatusCode, string(respBody))
		return fmt.Errorf("broadcast error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}
