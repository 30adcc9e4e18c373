// Package extractors provides implementations of the Extractor interface
// for the file formats accepted at upload. Each extractor knows how to pull
// plain text out of a specific MIME type.
//
// Extractors are registered with the Registry at startup via RegisterDefaults.
package extractors
