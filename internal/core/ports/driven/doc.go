// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentLoader: Reads a source file into per-page documents
//   - PostProcessorPipeline: Splits documents into chunks
//   - EmbeddingService: Maps text to vectors (build and query time)
//   - VectorIndexFactory / VectorIndex: Similarity search over chunk vectors
//   - IndexStore: Persists and reloads the vector index
//   - LLMService: Produces grounded answers
//   - ConfigStore / PromptStore: Configuration and prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
