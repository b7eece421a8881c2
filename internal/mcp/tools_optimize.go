package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"edgealign/internal/domain"
	"edgealign/internal/drawing"
)

func (s *Server) registerOptimizeTools() {
	s.mcp.AddTool(mcp.NewTool("optimize_arrows",
		mcp.WithDescription("Re-anchor every bound arrow and line in a diagram so it runs between the edge midpoints of the shapes it connects. "+
			"Pass the element array (prose or a code fence around it is fine). Returns the optimized array, or the input unchanged if no array could be parsed."),
		mcp.WithString("code", mcp.Description("Text containing a JSON array of diagram elements"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true), IdempotentHint: boolPtr(true)}),
	), s.handleOptimizeArrows)

	s.mcp.AddTool(mcp.NewTool("explain_arrows",
		mcp.WithDescription("Dry run of optimize_arrows: report which connectors would move, the edges chosen for each end and their geometry before and after."),
		mcp.WithString("code", mcp.Description("Text containing a JSON array of diagram elements"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true), IdempotentHint: boolPtr(true)}),
	), s.handleExplainArrows)

	s.mcp.AddTool(mcp.NewTool("edge_center",
		mcp.WithDescription("Pick the edge of a subject shape facing another shape and return its midpoint"),
		mcp.WithString("subject", mcp.Description(`Subject bounds as JSON: {"x":0,"y":0,"width":100,"height":100}; width and height default to 100`), mcp.Required()),
		mcp.WithString("other", mcp.Description("Other shape bounds as JSON, same format"), mcp.Required()),
		mcp.WithBoolean("end", mcp.Description("Subject is the end of the connector (falls back to the left edge instead of the right)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleEdgeCenter)
}

func (s *Server) handleOptimizeArrows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := s.optimize.Optimize(ctx, domain.RunSourceMCP, "", code)
	return textResult(out.Text), nil
}

// explanation is the explain_arrows payload.
type explanation struct {
	drawing.Report
	Error string `json:"error,omitempty"`
	RunID string `json:"runId,omitempty"`
}

func (s *Server) handleExplainArrows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := s.optimize.Optimize(ctx, domain.RunSourceMCP, "", code)
	exp := explanation{Report: out.Report, RunID: out.Run.ID}
	if out.Err != nil {
		exp.Error = out.Err.Error()
	}
	return jsonResult(exp)
}

type edgeCenterResult struct {
	Side  domain.Side  `json:"side"`
	Point domain.Point `json:"point"`
}

func (s *Server) handleEdgeCenter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := rectArg(req, "subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	other, err := rectArg(req, "other")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fallback := domain.SideRight
	if req.GetBool("end", false) {
		fallback = domain.SideLeft
	}
	side := drawing.SelectSide(subject, other, fallback)
	return jsonResult(edgeCenterResult{Side: side, Point: subject.EdgeCenter(side)})
}

func rectArg(req mcp.CallToolRequest, name string) (domain.Rect, error) {
	raw, err := req.RequireString(name)
	if err != nil {
		return domain.Rect{}, err
	}
	// Bounds are read like a shape in a document: missing or zero sizes
	// fall back to the default shape size.
	var el domain.Element
	if err := json.Unmarshal([]byte(raw), &el); err != nil {
		return domain.Rect{}, fmt.Errorf("%s: invalid bounds: %w", name, err)
	}
	if el == nil {
		return domain.Rect{}, fmt.Errorf("%s: invalid bounds: expected an object", name)
	}
	return el.Bounds(), nil
}
