// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TaskQueue: persisted, priority-ordered work list
//   - CandidateStore: dedup index and candidate history
//   - SearchAPI: count probes and paged repository search
//   - DetailFetcher: README enrichment content
//   - EmbeddingService: feature vector generation
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
