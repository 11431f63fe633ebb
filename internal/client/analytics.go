package client

import (
	"context"
	"time"
)

type errorRecord struct {
	UserID    string         `json:"user_id"`
	Event     string         `json:"event"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"error_message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Analytics forwards user-scoped errors to the analytics collector.
type Analytics struct {
	client *Client
	url    string
}

func NewAnalytics(c *Client, url string) *Analytics {
	return &Analytics{client: c, url: url}
}

func (a *Analytics) RecordError(ctx context.Context, userID, errType, message string, details map[string]any) error {
	return a.client.PostJSON(ctx, a.url, errorRecord{
		UserID:    userID,
		Event:     "error_occurred",
		ErrorType: errType,
		Message:   message,
		Context:   details,
		Timestamp: time.Now(),
	})
}
