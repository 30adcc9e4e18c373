// Package mcp provides an MCP (Model Context Protocol) server adapter for vdb.
// It exposes API-key gated queries and database status to AI assistants.
package mcp

import "errors"

var (
	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrMissingDatabaseService is returned when the database service is not provided.
	ErrMissingDatabaseService = errors.New("mcp: database service is required")
)
