// Package stub provides a scriptable llm.Client for tests, avoiding
// network calls to a real model.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/nevamind-ai/memu-go/llm"
)

// Client returns queued responses in order, one per Complete call, so
// tests can script an exact conversation.
type Client struct {
	mu        sync.Mutex
	responses []llm.Response
	requests  []llm.Request
	err       error
}

// New creates a stub that returns responses in order, then errors once
// exhausted.
func New(responses ...llm.Response) *Client {
	return &Client{responses: responses}
}

// WithError makes every call after the queued responses are exhausted
// return err instead of the default "no more responses" error.
func (c *Client) WithError(err error) *Client {
	c.err = err
	return c
}

func (c *Client) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		if c.err != nil {
			return nil, c.err
		}
		return nil, fmt.Errorf("stub.Client: no more scripted responses")
	}

	resp := c.responses[0]
	c.responses = c.responses[1:]
	return &resp, nil
}

// Requests returns every request Complete has received so far, in order.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.requests))
	copy(out, c.requests)
	return out
}
