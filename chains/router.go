package chains

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/randalmurphal/promptchain/parser"
	"github.com/randalmurphal/promptchain/pipeline"
)

// DecisionKey holds the classifier's normalized decision in the Values seen
// by Router handlers.
const DecisionKey = "decision"

// Router returns a pipeline that classifies a request and delegates it.
//
// The classifier receives the request Values (a bare string becomes
// Values{"input": s}) and must produce text, either a string or a
// *provider.Response. The text is trimmed and lowercased and stored under
// "decision"; the handler whose key equals the decision then receives the
// request Values with the decision added. Unmatched decisions go to fallback.
// Route keys are matched in sorted order.
func Router(classifier pipeline.Stage, routes map[string]pipeline.Stage, fallback pipeline.Stage) (*pipeline.Pipeline, error) {
	if classifier == nil {
		return nil, &pipeline.ConfigurationError{Reason: "router requires a classifier"}
	}
	decide := pipeline.Named("classify", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		out, err := classifier.Invoke(ctx, input)
		if err != nil {
			return nil, err
		}
		text, err := parser.Text(out)
		if err != nil {
			return nil, fmt.Errorf("router decision: %w", err)
		}
		return normalizeDecision(text), nil
	}))

	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	branches := make([]pipeline.Route, 0, len(keys))
	for _, k := range keys {
		branches = append(branches, pipeline.Route{
			Name: k,
			When: pipeline.Equals(DecisionKey, normalizeDecision(k)),
			Then: routes[k],
		})
	}
	branch, err := pipeline.Branch(branches, fallback)
	if err != nil {
		return nil, err
	}
	return pipeline.Compose(
		pipeline.Named("router input", pipeline.StageFunc(seed)),
		pipeline.Assign(map[string]pipeline.Stage{DecisionKey: decide}),
		branch,
	)
}

// MustRouter is like Router but panics on error.
func MustRouter(classifier pipeline.Stage, routes map[string]pipeline.Stage, fallback pipeline.Stage) *pipeline.Pipeline {
	p, err := Router(classifier, routes, fallback)
	if err != nil {
		panic(err)
	}
	return p
}

// normalizeDecision keeps the first word-like token of the classifier output
// so replies such as "Booker." or "booker\n" still route.
func normalizeDecision(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimFunc(s, func(r rune) bool {
		return r == '.' || r == '"' || r == '\'' || r == '`' || r == '*'
	})
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		s = s[:i]
		s = strings.TrimRight(s, ".,:;!")
	}
	return s
}
