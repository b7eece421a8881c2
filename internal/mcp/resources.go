package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"edgealign/internal/domain"
)

const runsURI = "edgealign://runs"

func (s *Server) registerResources() {
	// ── edgealign://runs ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		runsURI,
		"Recent optimization runs",
		mcp.WithResourceDescription("Latest entries of the run journal, newest first"),
		mcp.WithMIMEType("application/json"),
	), s.handleRunsResource)
}

func (s *Server) handleRunsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := s.runs.ListRuns(ctx, 50)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.OptimizeRun{}
	}

	data, _ := json.MarshalIndent(runs, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      runsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
