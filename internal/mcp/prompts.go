package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("align_diagram",
		mcp.WithPromptDescription("Draw a diagram as a JSON element array and clean up its arrows before returning it"),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("What the diagram should show"),
			mcp.RequiredArgument(),
		),
	), s.handleAlignDiagramPrompt)
}

func (s *Server) handleAlignDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	subject := req.Params.Arguments["subject"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Aligned diagram of: %s", subject),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draw a diagram of "%s" as a JSON array of elements.

1. Give every shape (rectangle, ellipse, diamond, text) a unique "id" and its x, y, width and height.
2. Connect shapes with "arrow" or "line" elements whose "start" and "end" are {"id": "<shape id>"}.
3. Do not bother computing arrow coordinates by hand.
4. Pass the array to optimize_arrows and return its output unchanged.
5. If a connector did not move, call explain_arrows to see whether one of its bindings points at a missing shape.`, subject),
				},
			},
		},
	}, nil
}
