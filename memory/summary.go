package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
)

const defaultSummaryPrompt = `Progressively summarize the conversation, adding onto the previous summary and returning a new summary.

Current summary:
{{summary}}

New lines of conversation:
{{lines}}

New summary:`

// SummaryOptions configures a Summary.
type SummaryOptions struct {
	// KeepTurns is the number of recent exchanges kept verbatim. Zero means 2.
	KeepTurns int

	// Prompt overrides the summarization prompt. It receives "summary" and
	// "lines".
	Prompt string

	// Options are passed to every summarization call.
	Options provider.Options
}

// Summary keeps the last KeepTurns exchanges verbatim and folds older ones
// into a running summary produced by client. It is safe for concurrent use.
type Summary struct {
	client provider.Client
	tmpl   *prompt.ChatTemplate
	keep   int
	opts   provider.Options

	mu      sync.Mutex
	summary string
	recent  []provider.Message
}

// NewSummary creates a summary memory backed by client.
func NewSummary(client provider.Client, opts SummaryOptions) (*Summary, error) {
	if client == nil {
		return nil, fmt.Errorf("memory: summary requires a client")
	}
	if opts.KeepTurns < 0 {
		return nil, fmt.Errorf("memory: keep turns must not be negative")
	}
	if opts.KeepTurns == 0 {
		opts.KeepTurns = 2
	}
	src := opts.Prompt
	if src == "" {
		src = defaultSummaryPrompt
	}
	tmpl, err := prompt.FromTemplate(src)
	if err != nil {
		return nil, fmt.Errorf("memory: summary prompt: %w", err)
	}
	return &Summary{client: client, tmpl: tmpl, keep: opts.KeepTurns, opts: opts.Options}, nil
}

// Text returns the current running summary.
func (s *Summary) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Messages implements Memory. A non-empty summary is returned as a leading
// system message followed by the recent turns.
func (s *Summary) Messages() []provider.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]provider.Message, 0, len(s.recent)+1)
	if s.summary != "" {
		out = append(out, provider.NewTextMessage(provider.RoleSystem, "Summary of the conversation so far:\n"+s.summary))
	}
	return append(out, s.recent...)
}

// Save implements Memory. When more than KeepTurns exchanges are held, the
// oldest are summarized. On failure the exchange is kept and the error
// returned; the next Save retries the fold.
func (s *Summary) Save(ctx context.Context, user, ai string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent,
		provider.NewTextMessage(provider.RoleUser, user),
		provider.NewTextMessage(provider.RoleAssistant, ai),
	)
	excess := len(s.recent) - 2*s.keep
	if excess <= 0 {
		return nil
	}
	old := s.recent[:excess]

	p, err := s.tmpl.Format(map[string]any{"summary": s.summary, "lines": transcript(old)})
	if err != nil {
		return fmt.Errorf("memory: render summary prompt: %w", err)
	}
	req := p.Request()
	s.opts.Apply(&req)
	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("memory: summarize: %w", err)
	}
	s.summary = strings.TrimSpace(resp.Content)
	s.recent = append([]provider.Message(nil), s.recent[excess:]...)
	return nil
}

// Restore replaces the recent turns with msgs, typically a session loaded
// from a Store. Nothing is summarized until the next Save.
func (s *Summary) Restore(msgs []provider.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = s.recent[:0]
	for _, m := range msgs {
		if m.Role == provider.RoleUser || m.Role == provider.RoleAssistant {
			s.recent = append(s.recent, m)
		}
	}
}

// Clear drops the summary and every recent turn.
func (s *Summary) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = ""
	s.recent = nil
}

func transcript(msgs []provider.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case provider.RoleUser:
			b.WriteString("Human: ")
		case provider.RoleAssistant:
			b.WriteString("AI: ")
		default:
			b.WriteString(string(m.Role) + ": ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ Memory = (*Summary)(nil)
