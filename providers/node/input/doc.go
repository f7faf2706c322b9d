// Package input implements the "input" node, the sink that receives values
// chained into a flow and turns them into items. Received values are folded
// into common or element items according to a policy; an accumulation mode
// gates whether the policy applies, and the execution mode decides whether
// the items are emitted directly (batch) or handed to an iterating group
// (foreach).
package input
