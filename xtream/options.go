package xtream

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBackoff replaces the retry backoff schedule. The total attempt count
// is always 1 + len(schedule); an empty schedule disables retries.
func WithBackoff(schedule []time.Duration) Option {
	return func(c *Client) {
		c.backoff = schedule
	}
}
