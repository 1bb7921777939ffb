package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends JSON requests to one remote provider and classifies its
// failures with Wrap and Status.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	header  http.Header

	// describe turns an error body into a message. Nil keeps the raw body.
	describe func(body []byte) string
}

// NewClient returns a client for the provider name rooted at baseURL.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		header:  http.Header{},
	}
}

// WithHeader adds a header sent on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.header.Set(key, value)
	return c
}

// WithErrorBody sets how error responses are turned into messages.
func (c *Client) WithErrorBody(describe func(body []byte) string) *Client {
	c.describe = describe
	return c
}

// Name is the provider name used in error messages.
func (c *Client) Name() string { return c.name }

// Do sends in as JSON (nothing when nil) and decodes a 200 reply into out
// (discarded when nil). op names the call in errors.
func (c *Client) Do(ctx context.Context, op, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encoding request: %w", c.name, op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.name, op, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Wrap(c.name, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := string(raw)
		if c.describe != nil {
			if m := c.describe(raw); m != "" {
				msg = m
			}
		}
		return Status(c.name, op, resp.StatusCode, msg)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(c.name, op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
