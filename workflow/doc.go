// Package workflow implements the three orchestration strategies that
// compose agents into a run.
//
//   - Sequential: an ordered pipeline threading each agent's output
//     into the next agent's input, fail-fast on the first error.
//   - Parallel: isolated fan-out of the same task to every agent,
//     joined to completion; one failure never aborts the others.
//   - Conditional: an assessment step classified against an ordered
//     decision table that routes to exactly one branch agent.
//
// All strategies return a Result that distinguishes partial agent
// failure from orchestration failure, and preserve deterministic
// ordering of recorded outcomes regardless of completion order.
package workflow
