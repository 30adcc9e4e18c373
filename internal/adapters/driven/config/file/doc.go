// Package file provides the TOML-backed configuration store.
//
// Values are addressed with dot-notation keys and written back as nested
// tables, so "embedding.provider" is stored as:
//
//	[embedding]
//	provider = "openai"
package file
