package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"edgealign/internal/domain"
	"edgealign/internal/service"
)

// Server is the MCP server for edgealign.
// It exposes the optimizer as tools so agents can clean up the diagrams
// they generate before handing them to an editor.
type Server struct {
	mcp      *server.MCPServer
	optimize *service.OptimizeService
	runs     domain.RunStore
	logger   *log.Logger
}

// Deps holds all dependencies passed from the app layer to the MCP server.
type Deps struct {
	Runs    domain.RunStore
	Logger  *log.Logger
	Name    string
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		runs:   deps.Runs,
		logger: deps.Logger,
	}
	s.optimize = service.NewOptimizeService(deps.Runs, s, deps.Logger)

	s.mcp = server.NewMCPServer(
		deps.Name,
		deps.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	s.registerOptimizeTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// Serve runs the MCP protocol over in/out until ctx is cancelled or in
// is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp: starting stdio server")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))
	return stdio.Listen(ctx, in, out)
}

// Emit forwards service events to connected clients as notifications.
func (s *Server) Emit(_ context.Context, event string, data any) {
	s.logger.Debug("event", "name", event)
	s.mcp.SendNotificationToAllClients("notifications/edgealign/"+event, map[string]any{"data": data})
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
