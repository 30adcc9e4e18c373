package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	APIKey   string `json:"api_key" jsonschema:"API key issued for the database to query"`
	Query    string `json:"query" jsonschema:"the text to find similar passages for"`
	NResults int    `json:"n_results,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Model    string `json:"model,omitempty" jsonschema:"embedding model override; must match the model used at ingestion"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Results []QueryResultOutput `json:"results"`
	Count   int                 `json:"count"`
}

// QueryResultOutput is one ranked passage. Lower scores are closer matches.
type QueryResultOutput struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// StatusInput is the input schema for the database_status tool.
type StatusInput struct {
	DatabaseID string `json:"database_id" jsonschema:"identifier returned when the database was created"`
}

// StatusOutput is the output schema for the database_status tool.
type StatusOutput struct {
	DatabaseID string `json:"database_id"`
	Status     string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Find the passages of a vector database closest to a query, authorised by an API key",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "database_status",
		Description: "Report whether a vector database is processing, completed or failed",
	}, s.handleStatus)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	results, err := s.ports.Query.QueryWithKey(ctx, input.APIKey, input.Query, input.NResults, input.Model)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Results: make([]QueryResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = QueryResultOutput{
			Text:   r.Text,
			Source: r.Source,
			Score:  r.Score,
		}
	}

	return nil, output, nil
}

// handleStatus handles the database_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.DatabaseID == "" {
		return nil, StatusOutput{}, domain.ErrInvalidInput
	}
	status := s.ports.Databases.Status(ctx, input.DatabaseID)
	return nil, StatusOutput{DatabaseID: input.DatabaseID, Status: status.String()}, nil
}
