// Package types holds the lowest-level shared contracts of the engine:
// the minimal agent execution interface and the structured error type.
//
// It has no dependencies on other opscrew packages so that every other
// package can import it without cycles.
package types
