// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: Persistent vector records with similarity search
//   - EmbeddingService: Generates embedding vectors for chunks and queries
//   - ReasoningService: Generates stage output from structured prompts
//   - DocumentSource: Supplies raw corpus documents for ingestion
//
// # Optional Interfaces
//
//   - SessionStore: Archives completed diagnostic sessions. When nil,
//     sessions are discarded after the report is emitted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
