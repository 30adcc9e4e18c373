package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for vdb resources.
	uriScheme = "vdb://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "databases",
		Name:        "databases",
		Description: "Summary of every vector database",
		MIMEType:    "application/json",
	}, s.handleDatabasesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "databases/{databaseId}",
		Name:        "database",
		Description: "Metadata of one vector database",
		MIMEType:    "application/json",
	}, s.handleDatabaseResource)
}

// databaseInfo is the public view of a metadata record.
type databaseInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Sector        string `json:"sector,omitempty"`
	Status        string `json:"status"`
	FileCount     int    `json:"file_count"`
	DocumentCount int    `json:"document_count"`
}

func newDatabaseInfo(db *domain.Database) databaseInfo {
	return databaseInfo{
		ID:            db.ID,
		Name:          db.Name,
		Description:   db.Description,
		Sector:        db.Sector,
		Status:        db.Status.String(),
		FileCount:     db.FileCount,
		DocumentCount: db.DocumentCount,
	}
}

// handleDatabasesResource lists every database.
func (s *Server) handleDatabasesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	dbs, err := s.ports.Databases.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}

	infos := make([]databaseInfo, len(dbs))
	for i := range dbs {
		infos[i] = newDatabaseInfo(&dbs[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDatabaseResource returns one database's metadata.
func (s *Server) handleDatabaseResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractDatabaseID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	db, err := s.ports.Databases.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting database: %w", err)
	}
	return jsonResult(req.Params.URI, newDatabaseInfo(db))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDatabaseID extracts the ID from a URI like vdb://databases/{databaseId}.
func extractDatabaseID(uri string) string {
	const prefix = uriScheme + "databases/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
