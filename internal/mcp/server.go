package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/dashdocs-mcp/internal/registry"
)

const (
	// ServerName is the MCP server name
	ServerName = "dashdocs-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DocsetsChangedMethod is the notification sent when docsets are loaded or unloaded
	DocsetsChangedMethod = "notifications/dashdocs/docsets_changed"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	registry *registry.Registry
	logger   *slog.Logger

	unsubscribe func()
}

// NewServer creates a new MCP server instance serving the docsets of reg.
// The caller keeps ownership of reg.
func NewServer(reg *registry.Registry, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:      mcpServer,
		registry: reg,
		logger:   logger.With("component", "mcp"),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, err
	}

	s.unsubscribe = reg.Subscribe(s.forwardEvent)

	return s, nil
}

// Serve runs the MCP protocol on in/out and blocks until ctx is done or
// the input is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	defer s.unsubscribe()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(searchDocsetsTool(), s.handleSearchDocsets)
	s.mcp.AddTool(listDocsetsTool(), s.handleListDocsets)
	s.mcp.AddTool(listSymbolsTool(), s.handleListSymbols)
	s.mcp.AddTool(relatedLinksTool(), s.handleRelatedLinks)
	s.mcp.AddTool(loadDocsetTool(), s.handleLoadDocset)
	s.mcp.AddTool(setSearchModeTool(), s.handleSetSearchMode)

	return nil
}

// forwardEvent tells connected clients that the set of docsets changed.
func (s *Server) forwardEvent(ev registry.Event) {
	if ev.Kind == registry.EventAboutToUnload {
		return
	}
	s.mcp.SendNotificationToAllClients(DocsetsChangedMethod, map[string]any{
		"event": ev.Kind.String(),
		"name":  ev.Name,
	})
}
