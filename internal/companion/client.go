// Package companion talks to the 0xQWERTY companion service, which maintains
// the EventSub subscriptions and forwards redemption events over the push
// channel.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

// APIError reports a non-success response from the companion service.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("companion: %s failed (HTTP/%d/%s)", e.Op, e.StatusCode, e.Status)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type subscribeRequest struct {
	BroadcasterID string   `json:"broadcaster_id"`
	RewardIDs     []string `json:"reward_ids"`
}

// SubscribeRedemptions registers the given reward ids for redemption event
// delivery. The endpoint upserts, so repeated calls with the same set are
// safe and create no duplicate subscriptions.
func (c *Client) SubscribeRedemptions(ctx context.Context, broadcasterID string, rewardIDs []string) error {
	const op = "subscribe to redemptions"

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	buf, err := json.Marshal(subscribeRequest{BroadcasterID: broadcasterID, RewardIDs: rewardIDs})
	if err != nil {
		return fmt.Errorf("companion: encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/client/eventsub-setup", bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("companion: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("companion: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return nil
}
