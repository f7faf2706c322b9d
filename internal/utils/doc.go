// Package utils provides shared low-level helpers used by the aigoflow node
// implementations. It covers a bounded HTTP request helper used by the HTTP,
// crawl and extraction nodes, and string helpers that render arbitrary node
// results as text for prompts, URLs and chain substitutions.
//
// Key entry points: [DoRequest] for a single HTTP round-trip with a capped
// body, [CloseWithLog] for deferred body cleanup, [Stringify] for rendering a
// node result as text, and [TruncateString] for log-safe previews.
package utils
