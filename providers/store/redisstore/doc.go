// Package redisstore persists chain results in Redis and publishes node
// status events over Redis pub/sub.
//
// [Store] implements chain.ResultStore, so results of a chain survive the
// process and can be shared between API replicas. [Publisher] implements
// engine.StatusObserver and emits each status change as JSON on the run's
// channel, where [Subscribe] (or any Redis client) can follow it.
package redisstore
