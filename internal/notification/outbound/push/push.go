// Package push delivers notifications to device tokens through the Expo push
// HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/config"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
)

const maxRetries = 3

type Client struct {
	httpClient *http.Client
	url        string
	token      string
	ins        instrument.Instrumentation
}

func New(cfg config.Config, ins instrument.Instrumentation) *Client {
	timeout := cfg.GetSecond("push.timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.GetString("push.url"),
		token:      cfg.GetString("push.access_token"),
		ins:        ins,
	}
}

type expoRequest struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

type expoResponse struct {
	Data struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

// Send pushes one message to one token. Rate-limit and server-side failures
// are retried with fibonacci backoff; ticket-level errors such as
// DeviceNotRegistered are permanent.
func (c *Client) Send(ctx context.Context, msg entity.PushMessage) (err error) {
	ctx, span := c.ins.Tracer("notification.outbound.push").Start(ctx, "Send")
	defer span.End()

	data := make(map[string]any, len(msg.Data)+3)
	for k, v := range msg.Data {
		data[k] = v
	}
	if msg.Category != "" {
		data["category"] = msg.Category.String()
	}
	if msg.CampaignID != 0 {
		data["campaignId"] = msg.CampaignID
	}
	if msg.ImageURL != "" {
		data["imageUrl"] = msg.ImageURL
	}

	body, err := json.Marshal(expoRequest{
		To:    msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  data,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("push: marshal request: %w", err)
	}

	backoff := retry.NewFibonacci(500 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxRetries(maxRetries, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.post(ctx, body)
	})
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("push: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return retry.RetryableError(fmt.Errorf("push: provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push: provider returned %d", resp.StatusCode)
	}

	var parsed expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("push: decode response: %w", err)
	}
	if parsed.Data.Status == "error" {
		if parsed.Data.Details.Error != "" {
			return fmt.Errorf("push: ticket error %s: %s", parsed.Data.Details.Error, parsed.Data.Message)
		}
		return fmt.Errorf("push: ticket error: %s", parsed.Data.Message)
	}

	return nil
}
