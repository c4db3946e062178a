package swipeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrRateLimited     = errors.New("daily like quota exceeded")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the server. It unwraps to one of the
// package errors when the status or code identifies it.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("matching api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "rate_limited" || e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Code == "invalid_decision":
		return ErrInvalidDecision
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the matching API on behalf of one viewer.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBatch asks for up to count ranked candidates, skipping exclude.
func (c *Client) FetchBatch(ctx context.Context, count int, exclude []int64) (*Batch, error) {
	q := url.Values{}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if len(exclude) > 0 {
		ids := make([]string, len(exclude))
		for i, id := range exclude {
			ids[i] = strconv.FormatInt(id, 10)
		}
		q.Set("exclude", strings.Join(ids, ","))
	}

	var batch Batch
	if err := c.do(ctx, http.MethodGet, "/api/v1/candidates?"+q.Encode(), nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (c *Client) Swipe(ctx context.Context, targetID int64, kind string, message *string) (*SwipeResult, error) {
	body := map[string]interface{}{
		"target_id": targetID,
		"kind":      kind,
	}
	if message != nil {
		body["message"] = *message
	}

	var res SwipeResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/swipes", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) MatchExists(ctx context.Context, targetID int64) (bool, error) {
	var res struct {
		Matched bool `json:"matched"`
	}
	path := "/api/v1/matches/" + strconv.FormatInt(targetID, 10) + "/exists"
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.Matched, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code, apiErr.Message = payload.Code, payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
