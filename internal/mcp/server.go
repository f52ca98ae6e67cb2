// Package mcp exposes the metrics engine and time-series analyzer as MCP
// tools over stdio, so an assistant can load a dataset and query it.
package mcp

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// Server holds the MCP server plus the active dataset. One dataset is live
// at a time; loading a new one replaces it.
type Server struct {
	server *mcp.Server

	mu     sync.Mutex
	data   *dataset.Dataset
	source string
}

// NewServer builds the MCP server and registers the analytics tools.
func NewServer() *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "echo-analytics",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("Starting MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// setData swaps in a new active dataset.
func (s *Server) setData(d *dataset.Dataset, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
	s.source = source
}

// activeData returns the current dataset and its source name, or nil when
// nothing is loaded.
func (s *Server) activeData() (*dataset.Dataset, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.source
}
