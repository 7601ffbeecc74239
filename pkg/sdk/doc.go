// Package perplexity provides a Go client for the answer engine's
// streaming search API.
//
// One call runs the whole cycle: the server emits the source list first,
// then streams the generated answer incrementally, and the client
// surfaces both as they arrive.
//
//	client := perplexity.NewClient("http://localhost:3001")
//	answer, err := client.Ask(ctx, "what is the capital of France?", perplexity.Events{
//	    OnSources: func(sources []perplexity.Source) { /* render source cards */ },
//	    OnDelta:   func(text string) { fmt.Print(text) },
//	})
//
// The answer's markdown cites sources inline as [N](url); Citations maps
// those markers back to the source list for interactive display.
package perplexity
