// Package tools provides the dispatch table for model tool calls.
//
// A Tool pairs a name and description with a typed Go handler; its JSON
// Schema is reflected from the handler's input type. Tools are collected in
// an explicit Registry that the agent consults by name:
//
//	type weatherArgs struct {
//	    City string `json:"city" jsonschema:"description=City name"`
//	}
//
//	weather := tools.MustNew("weather", "Current weather for a city",
//	    func(ctx context.Context, in weatherArgs) (string, error) {
//	        return lookup(ctx, in.City)
//	    })
//
//	reg := tools.NewRegistry()
//	if err := reg.Add(weather); err != nil {
//	    return err
//	}
//	out, err := reg.Dispatch(ctx, "weather", json.RawMessage(`{"city":"Oslo"}`))
package tools
