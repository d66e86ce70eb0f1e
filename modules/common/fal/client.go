package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Queue statuses reported by the status endpoint
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

const DefaultQueueURL = "https://queue.fal.run"

// Result - finished generation. Data is whatever the model returned.
type Result struct {
	Data      map[string]interface{}
	RequestID string
}

// submitResponse - POST {base}/{model}
type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// statusResponse - GET status_url
type statusResponse struct {
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
	Logs          []struct {
		Message string `json:"message"`
	} `json:"logs,omitempty"`
}

// Client - fal queue API client
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

// Options - zero values fall back to defaults
type Options struct {
	BaseURL      string
	PollInterval time.Duration
	// Timeout caps one Subscribe call. Zero means no cap.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient - Client 생성
func NewClient(apiKey string, opts Options) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
		httpClient:   opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultQueueURL
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

// Subscribe - submit to the queue and wait for the result
func (c *Client) Subscribe(ctx context.Context, modelID string, input map[string]interface{}) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sub, err := c.submit(ctx, modelID, input)
	if err != nil {
		return nil, err
	}
	log.Printf("🚀 [%s] Submitted: request_id=%s", modelID, sub.RequestID)

	if err := c.waitForCompletion(ctx, modelID, sub); err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := c.getJSON(ctx, sub.ResponseURL, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}

	return &Result{Data: data, RequestID: sub.RequestID}, nil
}

func (c *Client) submit(ctx context.Context, modelID string, input map[string]interface{}) (*submitResponse, error) {
	reqBody, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(modelID, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var sub submitResponse
	if err := c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("failed to submit to %s: %w", modelID, err)
	}
	if sub.RequestID == "" {
		return nil, fmt.Errorf("queue response for %s has no request_id", modelID)
	}

	base := c.baseURL + "/" + appID(modelID)
	if sub.StatusURL == "" {
		sub.StatusURL = base + "/requests/" + sub.RequestID + "/status"
	}
	if sub.ResponseURL == "" {
		sub.ResponseURL = base + "/requests/" + sub.RequestID
	}
	return &sub, nil
}

// waitForCompletion - polls until COMPLETED or ctx is done
func (c *Client) waitForCompletion(ctx context.Context, modelID string, sub *submitResponse) error {
	statusURL, err := withLogs(sub.StatusURL)
	if err != nil {
		return fmt.Errorf("invalid status url: %w", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	lastStatus := ""
	for {
		var status statusResponse
		if err := c.getJSON(ctx, statusURL, &status); err != nil {
			return fmt.Errorf("failed to get queue status: %w", err)
		}

		if status.Status != lastStatus {
			log.Printf("📊 [%s] Queue status: %s", modelID, status.Status)
			lastStatus = status.Status
		}
		for _, l := range status.Logs {
			log.Printf("   [%s] %s", modelID, l.Message)
		}

		switch status.Status {
		case StatusCompleted:
			return nil
		case StatusInQueue, StatusInProgress:
		default:
			log.Printf("⚠️ [%s] Unknown queue status: %s", modelID, status.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// APIError - non-2xx answer from the queue
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// appID - queue request urls live under "owner/app", not the full model path
func appID(modelID string) string {
	parts := strings.SplitN(strings.Trim(modelID, "/"), "/", 3)
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[0] + "/" + parts[1]
}

func withLogs(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("logs", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
