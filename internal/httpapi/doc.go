// Package httpapi exposes flow and chain execution over HTTP.
//
// Routes:
//
//	POST /v1/runs        run one flow definition
//	POST /v1/chains      run an ordered chain of flows
//	GET  /v1/node-types  list registered node types
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus metrics, when a handler is configured
package httpapi
