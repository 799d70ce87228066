// Package services contains the core business logic implementations.
//
// # Architectural Position
//
// Services sit at the centre of the hexagonal architecture. They implement
// the driving ports (what the CLI calls) and depend only on the driven
// ports (what adapters implement). No service imports an adapter.
//
// # Services
//
//   - RetrievalPipeline: chunk, embed and store corpus documents; answer
//     similarity queries with ranked literature passages.
//   - Orchestrator: run the three-stage diagnostic workflow over a patient
//     case and aggregate the final report.
//   - StoreAdmin: vector store administration for external tooling.
//
// # Import Rules
//
//   - May import: domain, ports/driven, ports/driving, chunker, retry, logger
//   - Must not import: adapters
package services
