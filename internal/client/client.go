// Package client sends signed, gzip-compressed JSON to external
// collaborators of the monitor.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fitcoach/perfmon/internal/utils"
)

// StatusError is returned when the peer answers with a non-2xx code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

type Client struct {
	httpClient *http.Client
	key        string
}

// New creates a client with the given per-request timeout. A non-empty key
// signs every body with HMAC-SHA256.
func New(timeout time.Duration, key string) *Client {
	return NewWithHTTP(&http.Client{Timeout: timeout}, key)
}

// DI: ready http.Client
func NewWithHTTP(hc *http.Client, key string) *Client {
	return &Client{httpClient: hc, key: key}
}

func gzipJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if _, err = zw.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return body.Bytes(), nil
}

// PostJSON posts payload to url. Transport failures are retried; a non-2xx
// answer is returned as *StatusError.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) error {
	body, err := gzipJSON(payload)
	if err != nil {
		return err
	}

	var code int
	err = utils.WithRetry(ctx, func() error {
		req, e := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if e != nil {
			return e
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")
		if c.key != "" {
			req.Header.Set(utils.HashHeader, utils.CalculateHash(body, c.key))
		}

		resp, e := c.httpClient.Do(req)
		if e != nil {
			return e
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		code = resp.StatusCode
		return nil
	})
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if code < 200 || code > 299 {
		return &StatusError{Code: code}
	}
	return nil
}

// Status issues a GET and returns the response code.
func (c *Client) Status(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
