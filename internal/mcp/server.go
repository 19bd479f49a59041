// Package mcp serves the analytics views as Model Context Protocol tools over
// stdio. Stdout carries protocol frames only; logs go to stderr and the log
// file.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/records"
)

// ServerName identifies this server in the MCP handshake.
const ServerName = "qa-analytics"

// Analyzer is the part of the engine exposed as tools.
type Analyzer interface {
	GetDefectAnalytics(ctx context.Context, filter records.Filter) (*analytics.DefectAnalytics, error)
	GetWashRecipeDefectAnalytics(ctx context.Context, filter records.Filter) (*analytics.WashRecipeAnalytics, error)
	GetComparisonData(ctx context.Context, filter records.Filter) (*analytics.ComparisonData, error)
}

// Options configures the server.
type Options struct {
	Version string
	// Charts appends Mermaid charts to every tool result.
	Charts bool
}

// Server holds the state for the MCP server.
type Server struct {
	engine Analyzer
	charts bool
	mcp    *mcp.Server
}

// NewServer creates the server and registers its tools.
func NewServer(engine Analyzer, opts Options) (*Server, error) {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		engine: engine,
		charts: opts.Charts,
		mcp:    mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: opts.Version}, nil),
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("server", ServerName).Bool("charts", s.charts).Msg("MCP server listening on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// formatResult renders data as indented JSON followed by any charts.
func formatResult(data any, charts []string) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	var sb strings.Builder
	sb.Write(out)
	for _, c := range charts {
		sb.WriteString("\n\n")
		sb.WriteString(c)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: sb.String()}},
	}, nil
}
