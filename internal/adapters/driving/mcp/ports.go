package mcp

import (
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers API-key gated queries.
	Query driving.QueryService

	// Databases reports status and metadata.
	Databases driving.DatabaseService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Databases == nil {
		return ErrMissingDatabaseService
	}
	return nil
}
