// Package llm provides chat-completion clients for the classification and
// monitoring prompts. OpenAI, Anthropic and Gemini are supported. Requests
// may carry inline images alongside text, and every client is wrapped with
// rate limiting and optional retry.
package llm
