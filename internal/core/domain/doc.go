// Package domain contains the core business entities for the
// discovery pipeline: tasks, candidates, domain ranges, references,
// and their invariants. It has no dependencies on adapters.
package domain
