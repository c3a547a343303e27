package usage

import (
	"fmt"
	"strings"
)

// Family is a normalized model family name.
type Family string

// Claude model families.
const (
	FamilyOpus   Family = "opus"
	FamilySonnet Family = "sonnet"
	FamilyHaiku  Family = "haiku"
)

// OpenAI model families.
const (
	FamilyGPT     Family = "gpt"
	FamilyGPTMini Family = "gpt-mini"
)

// Tier is a model capability tier.
type Tier int

// Tier constants, cheapest first.
const (
	TierFast Tier = iota
	TierDefault
	TierThinking
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierDefault:
		return "default"
	case TierThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name as produced by Tier.String.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return TierFast, nil
	case "default", "":
		return TierDefault, nil
	case "thinking":
		return TierThinking, nil
	}
	return TierDefault, fmt.Errorf("unknown tier %q", s)
}

// DefaultModels maps tiers to Anthropic model identifiers.
var DefaultModels = map[Tier]string{
	TierFast:     "claude-haiku-4-5",
	TierDefault:  "claude-sonnet-4-5",
	TierThinking: "claude-opus-4-1",
}

// ModelForTier returns the default model for t.
func ModelForTier(t Tier) string {
	if m, ok := DefaultModels[t]; ok {
		return m
	}
	return DefaultModels[TierDefault]
}

// TierFor returns the tier of a model identifier or family name.
func TierFor(model string) Tier {
	switch Normalize(model) {
	case FamilyOpus:
		return TierThinking
	case FamilyHaiku, FamilyGPTMini:
		return TierFast
	default:
		return TierDefault
	}
}

// Normalize converts a model identifier to its family. For example
// "claude-sonnet-4-20250514" becomes "sonnet" and "gpt-4o-mini" becomes
// "gpt-mini". Unknown names are returned unchanged.
func Normalize(model string) Family {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "opus"):
		return FamilyOpus
	case strings.Contains(lower, "sonnet"):
		return FamilySonnet
	case strings.Contains(lower, "haiku"):
		return FamilyHaiku
	case strings.HasPrefix(lower, "gpt-") || lower == "gpt" || lower == "gpt-mini":
		if strings.Contains(lower, "-mini") || strings.Contains(lower, "-nano") {
			return FamilyGPTMini
		}
		return FamilyGPT
	}
	return Family(model)
}
