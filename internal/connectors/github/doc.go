// Package github adapts the GitHub Search and Contents APIs to the
// core's SearchAPI and DetailFetcher ports. It owns the per-scope rate
// limiting and the translation of go-github errors into the error
// taxonomy the workers act on.
package github
