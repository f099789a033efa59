// Package llm provides the chat-completions client used for recommendation
// extraction, with JSON-only prompting, bounded retry, and tolerant payload
// decoding.
package llm
