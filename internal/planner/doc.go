// Package planner describes the output of resolution: the ordered list of
// tasks handed to the package executor.
//
// The resolver builds a Plan; the planner only models it and checks that it
// can be executed.
//
// Key responsibilities:
//   - Plan with ordered tasks, dependency levels and issues
//   - Action classification of queued packages
//   - Verification of staged archives before execution
package planner
