// Package node assembles the default node catalog. [RegisterDefaults] adds
// every built-in node type to an engine.Factory; the node implementations
// live in the sub-packages (merger, input, llm, httpreq, extract, crawl).
package node
