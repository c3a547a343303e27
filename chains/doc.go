// Package chains builds common LLM stages and patterns on top of pipeline.
//
// Model turns prompts into provider calls, LLM wires a template, a model and
// a string parser together, and the pattern constructors cover the usual
// multi-step shapes:
//
//   - Sequence runs named steps and accumulates each output under its key.
//   - Router classifies a request with a model and delegates to a handler.
//   - Reflect alternates a producer and a critic until the critic approves.
//   - FromDefinition builds a Sequence from a prompt library chain.
//
// Example:
//
//	tmpl := prompt.MustFromTemplate("Tell me a joke about {{topic}}.")
//	joke := chains.LLM(tmpl, client, chains.WithTemperature(0.7))
//	out, err := joke.Invoke(ctx, pipeline.Values{"topic": "bears"})
package chains
