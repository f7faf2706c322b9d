// Package chain runs an ordered list of independent flows, letting later
// flows reference the results of earlier ones.
//
// Every flow gets its own execution context. Before a flow starts, each
// ${result-flow-<id>} token inside its string inputs is replaced with a text
// rendering of flow <id>'s result (see [Render]). The chain stops at the
// first failing flow; results of the flows that completed stay available in
// the [ResultStore] and in the returned [Report].
package chain
