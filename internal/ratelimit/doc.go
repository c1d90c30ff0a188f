// Package ratelimit implements the sliding-window limiter used to throttle
// message posting.
//
// Layout:
//   - domain: types and contracts, no HTTP and no storage
//   - application: the decision service
//   - infra: in-process and Redis window stores, stats sinks
//
// The HTTP adapter lives in the admission package.
package ratelimit
