// Package usage tracks token consumption and estimated cost per model family.
//
// Model identifiers are normalized to families ("claude-sonnet-4-5-20250929"
// becomes "sonnet") so usage across dated snapshots aggregates together:
//
//	tracker := usage.NewTracker()
//	tracker.Record(resp.Model, resp.Usage)
//	fmt.Printf("$%.4f\n", tracker.EstimatedCost())
//
// Families are grouped into capability tiers; DefaultModels maps each tier to
// a concrete model for callers that pick by tier.
package usage
