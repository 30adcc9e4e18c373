// Package chunkers builds the Chunker strategies used by ingestion.
//
// Strategies live in subpackages (tokenwindow, sentence). The Registry maps
// strategy names to builders so the active strategy is chosen from
// configuration, and Factory adapts the registry to per-request chunk sizes.
package chunkers
