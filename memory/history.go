package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/tokens"
)

// Memory is conversation state a Conversation stage reads and updates.
type Memory interface {
	// Messages returns the turns to send ahead of the next user input.
	Messages() []provider.Message

	// Save records one completed exchange.
	Save(ctx context.Context, user, ai string) error
}

// History is an ordered message buffer. It is safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	messages []provider.Message
}

// NewHistory creates a history seeded with msgs.
func NewHistory(msgs ...provider.Message) *History {
	return &History{messages: slices.Clone(msgs)}
}

// Add appends messages.
func (h *History) Add(msgs ...provider.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// AddUser appends a user turn.
func (h *History) AddUser(text string) {
	h.Add(provider.NewTextMessage(provider.RoleUser, text))
}

// AddAI appends an assistant turn.
func (h *History) AddAI(text string) {
	h.Add(provider.NewTextMessage(provider.RoleAssistant, text))
}

// AddSystem appends a system message.
func (h *History) AddSystem(text string) {
	h.Add(provider.NewTextMessage(provider.RoleSystem, text))
}

// Messages returns a copy of every message.
func (h *History) Messages() []provider.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages)
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes every message.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Save implements Memory.
func (h *History) Save(_ context.Context, user, ai string) error {
	h.Add(
		provider.NewTextMessage(provider.RoleUser, user),
		provider.NewTextMessage(provider.RoleAssistant, ai),
	)
	return nil
}

// Window returns the newest messages whose combined token count fits
// budget, in their original order. System messages are always kept and
// count against the budget first. A message that does not fit ends the
// window; older messages are not considered.
func (h *History) Window(counter tokens.Counter, budget int) []provider.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	remaining := budget
	for _, m := range h.messages {
		if m.Role == provider.RoleSystem {
			remaining -= tokens.CountMessage(counter, m)
		}
	}

	keep := make([]bool, len(h.messages))
	for i := len(h.messages) - 1; i >= 0; i-- {
		m := h.messages[i]
		if m.Role == provider.RoleSystem {
			keep[i] = true
			continue
		}
		cost := tokens.CountMessage(counter, m)
		if cost > remaining {
			break
		}
		remaining -= cost
		keep[i] = true
	}
	// systems older than the cut are still kept
	for i, m := range h.messages {
		if m.Role == provider.RoleSystem {
			keep[i] = true
		}
	}

	out := make([]provider.Message, 0, len(h.messages))
	for i, m := range h.messages {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out
}

// Windowed returns a Memory view of h whose Messages are limited to the
// token budget. Saves go to h.
func (h *History) Windowed(counter tokens.Counter, budget int) Memory {
	return &windowed{h: h, counter: counter, budget: budget}
}

type windowed struct {
	h       *History
	counter tokens.Counter
	budget  int
}

func (w *windowed) Messages() []provider.Message { return w.h.Window(w.counter, w.budget) }

func (w *windowed) Save(ctx context.Context, user, ai string) error { return w.h.Save(ctx, user, ai) }

var _ Memory = (*History)(nil)
