// Package truncate shortens text to a token budget.
//
// A Truncator keeps the head, the tail or both ends of a text and marks the
// cut with a marker string. Token counts come from a tokens.Counter, so the
// same estimator or tiktoken counter used for context windows decides where
// text is cut:
//
//	tr := truncate.New(truncate.KeepEnds, truncate.WithCounter(counter))
//	short, cut := tr.Truncate(toolOutput, 500)
//
// Cuts always fall on rune boundaries.
package truncate
