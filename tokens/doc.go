// Package tokens counts tokens and splits context windows into budgets.
//
// EstimatingCounter uses the ~4 characters per token rule of thumb and
// needs no tokenizer. TiktokenCounter uses a BPE encoding for exact counts
// on OpenAI models and a close approximation elsewhere:
//
//	counter, err := tokens.ForModel("claude-sonnet-4-5")
//	n := counter.Count("Hello, world!")
//
// Budget divides a context window between system prompt, context (history
// and retrieved documents), user input and a reserve for the response:
//
//	budget := tokens.NewModelBudget("claude-sonnet-4-5", counter)
//	history.Window(budget.Counter(), budget.Context)
package tokens
