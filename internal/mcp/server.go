package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ereli-sevenai/RTFD/internal/app"
	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/output"
	"github.com/ereli-sevenai/RTFD/internal/providers"
	"github.com/ereli-sevenai/RTFD/internal/utils"
	"github.com/ereli-sevenai/RTFD/pkg/version"
)

// Server exposes the documentation gateway over the Model Context
// Protocol. Tool payloads are serialized through the configured
// encoder so agents get JSON or TOON text content.
type Server struct {
	service  *app.Service
	registry *providers.Registry
	encoder  *output.Encoder
	config   *config.Config
	logger   *utils.Logger
	server   *mcp.Server
}

// ServerOptions contains dependencies for the MCP server.
type ServerOptions struct {
	Service  *app.Service
	Registry *providers.Registry
	Config   *config.Config
	Logger   *utils.Logger
}

// NewServer creates an MCP server wired to the given service.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("mcp server requires a service")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("mcp server requires a provider registry")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("mcp server requires a config")
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	impl := &mcp.Implementation{
		Name:    "rtfd",
		Version: version.Version,
	}

	s := &Server{
		service:  opts.Service,
		registry: opts.Registry,
		encoder:  output.NewEncoder(opts.Config.Output.Format),
		config:   opts.Config,
		logger:   logger.WithComponent("mcp"),
		server:   mcp.NewServer(impl, nil),
	}

	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().
		Str("format", string(s.encoder.Format())).
		Msg("Starting MCP server on stdio")

	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr until the context is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	s.logger.Info().
		Str("addr", addr).
		Str("format", string(s.encoder.Format())).
		Msg("Starting MCP server on HTTP")

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// textResult wraps encoded payload text in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
