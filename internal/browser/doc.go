// Package browser owns the lifetime of a scoped browser session: engine
// process, browser, one isolated context and the pages it opens.
//
// A Session is acquired once per scenario run and released on every exit
// path. Release is idempotent and never fails the caller.
package browser
