// Package services contains the core application logic: the interval
// splitter that keeps each search under the result cap, the scorer
// that decides candidate relevance, and the orchestrator that drives
// both through the persisted task queue. Services depend only on the
// domain model and the driven ports, never on adapter packages.
package services
