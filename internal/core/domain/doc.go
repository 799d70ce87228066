// Package domain defines the core business entities for CardioMind.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded span of corpus text, the unit of embedding and retrieval
//   - RawDocument: An unprocessed corpus document from a document source
//   - PatientCase: The clinical record a diagnosis runs against
//   - DiagnosticSession: The per-request record of a diagnosis workflow
//   - DiagnosisReport: The aggregated output of a completed workflow
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
