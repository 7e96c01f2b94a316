// Package mcp exposes VP role search as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
)

// ToolSearchVPRoles is the name of the search tool.
const ToolSearchVPRoles = "search_vp_roles"

// Searcher is the retrieval surface exposed over MCP.
type Searcher interface {
	SearchVPRoles(ctx context.Context, department string) (result.Outcome, error)
	SearchDepartment(ctx context.Context, filterRole, department string, limit int) (result.Outcome, error)
}

// Config holds MCP server settings.
type Config struct {
	Name       string
	Version    string
	FilterRole string
	Logger     *zap.Logger
}

// SearchInput is the search_vp_roles tool input.
type SearchInput struct {
	Department string `json:"department" jsonschema:"department to search for, e.g. Sales"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results, defaults to the configured candidate limit"`
}

// ResultItem is one ranked match.
type ResultItem struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Score float64 `json:"score"`
	Band  string  `json:"band"`
}

// SearchOutput is the search_vp_roles tool output.
type SearchOutput struct {
	Status       string       `json:"status"`
	Results      []ResultItem `json:"results"`
	AverageScore float64      `json:"average_score"`
}

// Server wraps an MCP server with the vpsearch tools registered.
type Server struct {
	server     *mcp.Server
	search     Searcher
	filterRole string
	logger     *zap.Logger
}

// NewServer creates the MCP server and registers search_vp_roles.
func NewServer(search Searcher, cfg *Config) *Server {
	name := cfg.Name
	if name == "" {
		name = "vpsearch"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	filterRole := cfg.FilterRole
	if filterRole == "" {
		filterRole = domain.DefaultFilterRole
	}

	s := &Server{
		server:     mcp.NewServer(&mcp.Implementation{Name: name, Version: cfg.Version}, nil),
		search:     search,
		filterRole: filterRole,
		logger:     logger,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolSearchVPRoles,
		Description: "Find people holding a VP role whose role is semantically closest to " +
			"\"Vice President <department>\". Results are ranked by cosine similarity.",
	}, s.handleSearch)

	return s
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(
	ctx context.Context, _ *mcp.CallToolRequest, in SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	var (
		out result.Outcome
		err error
	)
	if in.Limit > 0 {
		out, err = s.search.SearchDepartment(ctx, s.filterRole, in.Department, in.Limit)
	} else {
		out, err = s.search.SearchVPRoles(ctx, in.Department)
	}
	if err != nil {
		s.logger.Warn("mcp search failed", zap.String("department", in.Department), zap.Error(err))
		return toolError(err.Error()), SearchOutput{Status: string(result.StatusFailed), Results: []ResultItem{}}, nil
	}

	output := toOutput(out)
	if !out.OK() {
		s.logger.Warn("mcp search degraded", zap.Error(out.Err))
		return toolError("search failed: " + errorText(out.Err)), output, nil
	}

	text, err := json.Marshal(output)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("marshal output: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}, output, nil
}

func toOutput(out result.Outcome) SearchOutput {
	items := make([]ResultItem, 0, len(out.Results))
	for _, r := range out.Results {
		items = append(items, ResultItem{Name: r.Name(), Role: r.Role(), Score: r.Score(), Band: string(r.Band())})
	}
	return SearchOutput{Status: string(out.Status), Results: items, AverageScore: out.AverageScore()}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func errorText(err error) string {
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return domain.ErrIndexUnavailable.Error()
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
