// Package providertest provides a scripted provider.Client for tests.
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/promptchain/provider"
)

// ErrScriptExhausted is returned when a Fake runs out of scripted replies.
var ErrScriptExhausted = errors.New("fake provider: no scripted reply left")

// Reply is one scripted outcome.
type Reply struct {
	Response *provider.Response
	Err      error
}

// Text is shorthand for a reply carrying only text content.
func Text(content string) Reply {
	return Reply{Response: &provider.Response{Content: content, FinishReason: provider.FinishStop}}
}

// Fail is shorthand for a failing reply.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Fake is a provider.Client that returns scripted replies in order, or
// delegates to Handler when set. All requests are recorded.
type Fake struct {
	Name    string
	Handler func(ctx context.Context, req provider.Request) (*provider.Response, error)

	mu       sync.Mutex
	replies  []Reply
	requests []provider.Request
	closed   bool
}

// New creates a Fake that plays back replies in order.
func New(replies ...Reply) *Fake {
	return &Fake{Name: "fake", replies: replies}
}

// Complete implements provider.Client.
func (f *Fake) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler := f.Handler
	var next *Reply
	if handler == nil && len(f.replies) > 0 {
		next = &f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler != nil {
		return handler(ctx, req)
	}
	if next == nil {
		return nil, ErrScriptExhausted
	}
	if next.Err != nil {
		return nil, next.Err
	}
	resp := *next.Response
	return &resp, nil
}

// Provider implements provider.Client.
func (f *Fake) Provider() string {
	if f.Name == "" {
		return "fake"
	}
	return f.Name
}

// Close implements provider.Client.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Requests returns a copy of every request received so far.
func (f *Fake) Requests() []provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.Request(nil), f.requests...)
}

// Calls returns the number of requests received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var _ provider.Client = (*Fake)(nil)
