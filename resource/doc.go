// Package resource limits the concurrency and bandwidth of ranged reads
// against object stores.
//
// A nil *Controller is valid and imposes no limits.
package resource
