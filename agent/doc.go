// Package agent implements the executable capability unit of the
// engine: a role/goal identity bound to an LLM provider.
//
// An Agent is immutable after construction and safe to share read-only
// across concurrent workflow runs; it holds no per-run mutable state.
// Two execution modes are provided: the blocking Execute, and
// ExecuteAsync which returns an independently cancelable handle.
package agent
