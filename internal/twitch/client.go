// Package twitch is a minimal Helix API client covering the endpoints the
// client needs: the current user, manageable custom rewards and redemption
// status updates. Calls are bearer-token authenticated and carry the app's
// Client-Id header.
package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const requestTimeout = 10 * time.Second

// APIError reports a non-success response or a structurally invalid response
// body from the Helix API.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Reason     string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("twitch: %s failed (HTTP/%d/%s)", e.Op, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("twitch: %s failed (%s)", e.Op, e.Reason)
}

// User is the authenticated user as reported by GET /users.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Reward is Twitch's view of a custom reward. Title and cost are
// authoritative over the local declaration once the reward exists.
type Reward struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cost  int    `json:"cost"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// clientIDTransport adds the Client-Id header Twitch requires alongside the
// bearer token.
type clientIDTransport struct {
	clientID string
	base     http.RoundTripper
}

func (t *clientIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Client-Id", t.clientID)
	return t.base.RoundTrip(clone)
}

// NewClient builds a Helix client from an implicit-grant access token.
func NewClient(baseURL, clientID, accessToken string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.Background(), src)
	authed.Transport = &clientIDTransport{clientID: clientID, base: authed.Transport}
	authed.Timeout = requestTimeout
	return &Client{baseURL: baseURL, httpClient: authed}
}

type dataEnvelope[T any] struct {
	Data []T `json:"data"`
}

// do issues the request and, when out is non-nil, decodes the JSON response
// into it. The response body is consumed here, while the per-call timeout
// context is still alive; a slow body counts against the timeout instead of
// being aborted by it.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("twitch: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("twitch: build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twitch: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, Reason: "malformed response body"}
	}
	return nil
}

// GetCurrentUser fetches the user the access token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	const op = "fetch current user"
	var parsed dataEnvelope[User]
	if err := c.do(ctx, op, http.MethodGet, "/users", nil, nil, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].ID == "" {
		return nil, &APIError{Op: op, Reason: "response contains no user"}
	}
	return &parsed.Data[0], nil
}

// GetCustomRewards lists the custom rewards of the broadcaster this client
// may manage.
func (c *Client) GetCustomRewards(ctx context.Context, broadcasterID string) ([]Reward, error) {
	const op = "fetch custom rewards"
	query := url.Values{
		"broadcaster_id":          {broadcasterID},
		"only_manageable_rewards": {"1"},
	}
	var parsed dataEnvelope[Reward]
	if err := c.do(ctx, op, http.MethodGet, "/channel_points/custom_rewards", query, nil, &parsed); err != nil {
		return nil, err
	}
	for _, r := range parsed.Data {
		if r.ID == "" || r.Title == "" {
			return nil, &APIError{Op: op, Reason: "reward is missing required fields"}
		}
	}
	return parsed.Data, nil
}

// CreateCustomReward creates a reward with the given title and cost and
// returns its id.
func (c *Client) CreateCustomReward(ctx context.Context, broadcasterID, title string, cost int) (string, error) {
	const op = "create custom reward"
	query := url.Values{"broadcaster_id": {broadcasterID}}
	body := map[string]any{"title": title, "cost": cost}
	var parsed dataEnvelope[Reward]
	if err := c.do(ctx, op, http.MethodPost, "/channel_points/custom_rewards", query, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].ID == "" {
		return "", &APIError{Op: op, Reason: "response contains no reward id"}
	}
	return parsed.Data[0].ID, nil
}

// UpdateRedemptionStatus marks a redemption as FULFILLED or CANCELED.
// CANCELED refunds the viewer's points.
func (c *Client) UpdateRedemptionStatus(ctx context.Context, broadcasterID, redemptionID, rewardID string, fulfilled bool) error {
	const op = "update redemption status"
	status := "CANCELED"
	if fulfilled {
		status = "FULFILLED"
	}
	query := url.Values{
		"id":             {redemptionID},
		"broadcaster_id": {broadcasterID},
		"reward_id":      {rewardID},
	}
	return c.do(ctx, op, http.MethodPatch, "/channel_points/custom_rewards/redemptions", query, map[string]string{"status": status}, nil)
}
