package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noahxzhu/interval-alert/internal/model"
)

// Client talks to the JSON API of a running server.
type Client struct {
	BaseURL  string
	Password string
	HTTP     *http.Client
}

func NewClient(baseURL, password string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Password: password,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// SetAlert submits the raw form values and returns the confirmation text.
func (c *Client) SetAlert(ctx context.Context, interval, message string) (string, error) {
	var resp AlertResponse
	if err := c.do(ctx, http.MethodPost, SetAlertRequest{Interval: interval, Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Confirmation, nil
}

func (c *Client) Cancel(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, nil, nil)
}

// Status returns the active registration or nil.
func (c *Client) Status(ctx context.Context) (*model.Registration, error) {
	var resp AlertResponse
	if err := c.do(ctx, http.MethodGet, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Alert, nil
}

func (c *Client) do(ctx context.Context, method string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/alert", reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Password != "" {
		req.Header.Set("Authorization", "Bearer "+c.Password)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e apiError
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Field: e.Field}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
