// Package flow holds the flow definition model and the graph builder.
//
// A [Definition] is the flat list of nodes and edges a caller hands to the
// engine, usually loaded from a JSON or YAML file with [LoadFile] or [Parse].
// [BuildGraph] turns it into an adjacency structure with parent and child
// links, root detection and breadth-first depth levels. Cycles and dangling
// edges are tolerated: nodes that cannot be reached from a root get
// [UnreachableDepth] instead of causing an error.
//
// [Validate] produces a [Report] describing the shape of a definition without
// running it, which backs the CLI validate command.
package flow
