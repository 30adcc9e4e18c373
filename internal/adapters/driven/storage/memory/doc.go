// Package memory provides in-memory implementations of the driven storage
// ports. They back service tests and ephemeral runs; nothing is persisted.
package memory
