package websearch

// rewritePrompt instructs the model to turn a free-form user message into
// a bare search-engine query. The model must return the query and nothing
// else: no quoting, no explanation.
const rewritePrompt = `Intelligently convert user's message into a Google search query
that will get the most relevant results.

- Match human Google search patterns
- Return only the search query
- No explanations or context
- Don't wrap the query in quotes

Example:
User: What is the capital of France?
Query: capital of France

User: how did vercel start
Query: vercel history
`

func rewriteSystemPrompt(userQuery string) string {
	return rewritePrompt + "\nUser's message:\n" + userQuery
}
