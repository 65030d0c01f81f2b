// Package runner executes scenarios against browser sessions.
//
// One run acquires one session, executes the scenario's steps in order,
// evaluates its assertions and releases the session on every exit path. A
// failed run carries exactly one diagnostic. Suites run scenarios in
// parallel, each with its own session.
package runner
