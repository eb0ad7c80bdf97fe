package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mediahaus/siterag/pkg/models"
)

// ChunkReader is the read-only slice of the chunk store the MCP tools use.
type ChunkReader interface {
	TextSearch(ctx context.Context, query string, k int) ([]models.SearchResult, error)
	GetChunk(ctx context.Context, contentHash string) (*models.Chunk, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server exposes the ingested chunk store over MCP stdio.
type Server struct {
	mcpServer *server.MCPServer
	store     ChunkReader
}

// NewServer creates an MCP server with chunk search tools.
func NewServer(config Config, store ChunkReader) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     store,
	}

	searchTool := mcp.NewTool("search_chunks",
		mcp.WithDescription("Search ingested site chunks by text query. Returns matching chunks with their source URLs."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	getChunkTool := mcp.NewTool("get_chunk",
		mcp.WithDescription("Get a specific chunk by its content hash"),
		mcp.WithString("content_hash",
			mcp.Required(),
			mcp.Description("Content hash of the chunk to retrieve"),
		),
	)
	mcpServer.AddTool(getChunkTool, s.getChunkHandler)

	return s
}

// searchHandler handles the search_chunks tool call.
func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	limit := req.GetInt("limit", 10)

	results, err := s.store.TextSearch(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	out, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// getChunkHandler handles the get_chunk tool call.
func (s *Server) getChunkHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := req.RequireString("content_hash")
	if err != nil {
		return mcp.NewToolResultError("content_hash parameter is required"), nil
	}

	chunk, err := s.store.GetChunk(ctx, hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get chunk failed: %v", err)), nil
	}
	if chunk == nil {
		return mcp.NewToolResultError(fmt.Sprintf("chunk not found: %s", hash)), nil
	}

	out, err := json.Marshal(chunk)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal chunk: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ServeStdio runs the MCP server over stdio until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
