// Package mcp exposes the dialogue engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/internal/presentation/graph"
	"github.com/aretw0/rapport/pkg/domain"
	flow "github.com/aretw0/rapport/pkg/graph"
	"github.com/aretw0/rapport/pkg/inbound"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "rapport://graph"

// Engine defines the part of the rapport engine exposed as tools.
type Engine interface {
	Dispatch(ctx context.Context, userID string, ev domain.Event) (domain.Instruction, error)
	Render(ctx context.Context, userID string) (domain.Instruction, error)
	Session(ctx context.Context, userID string) (*domain.Session, error)
	Graph() *flow.Graph
}

// UserArgs selects the user a tool acts for.
type UserArgs struct {
	UserID string `json:"user_id"`
}

// DispatchArgs carries one inbound event.
type DispatchArgs struct {
	UserID string `json:"user_id"`
	domain.Event
}

// Server wraps the rapport Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	sanitizer *inbound.Sanitizer
	redactor  *middleware.Redactor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithRedactor masks matching profile fields in get_session results.
func WithRedactor(r *middleware.Redactor) Option {
	return func(s *Server) { s.redactor = r }
}

// WithSanitizer replaces the default inbound sanitizer.
func WithSanitizer(san *inbound.Sanitizer) Option {
	return func(s *Server) { s.sanitizer = san }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sanitizer: inbound.NewSanitizer(inbound.DefaultMaxInputSize),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("rapport-mcp", strings.TrimSpace(rapport.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render",
		mcp.WithDescription("Render the current screen of a user without changing the session."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithOutputSchema[domain.Instruction](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Deliver one user event and return the next screen."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("kind", mcp.Required(),
			mcp.Enum(
				string(domain.EventFreeText), string(domain.EventOptionSelected), string(domain.EventMultiToggle),
				string(domain.EventCategoryOpened), string(domain.EventDone), string(domain.EventBack),
				string(domain.EventEditField), string(domain.EventSkip),
			),
			mcp.Description("Event kind")),
		mcp.WithString("text", mcp.Description("Typed text (free_text)")),
		mcp.WithString("option", mcp.Description("Option id (option_selected)")),
		mcp.WithString("category", mcp.Description("Category id (multi_toggle, category_opened)")),
		mcp.WithString("item", mcp.Description("Item id (multi_toggle)")),
		mcp.WithString("field", mcp.Description("Field name (done, edit_field)")),
		mcp.WithOutputSchema[domain.Instruction](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current session of a user, including writes not yet persisted."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the dialogue graph as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Graph(), nil)), nil
	})
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args UserArgs) (domain.Instruction, error) {
	if args.UserID == "" {
		return domain.Instruction{}, errors.New("user_id is required")
	}
	instr, err := s.engine.Render(ctx, args.UserID)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("render failed: %w", err)
	}
	return instr, nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args DispatchArgs) (domain.Instruction, error) {
	if args.UserID == "" {
		return domain.Instruction{}, errors.New("user_id is required")
	}
	ev, err := s.sanitizer.Event(args.Event)
	if err != nil {
		s.logger.Warn("MCP dispatch: input rejected", "user_id", args.UserID, "error", err, "size", len(args.Text))
		return domain.Instruction{}, fmt.Errorf("input rejected: %w", err)
	}
	instr, err := s.engine.Dispatch(ctx, args.UserID, ev)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return instr, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.engine.Session(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no session for %s", userID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if s.redactor != nil {
		sess = s.redactor.Redact(sess)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Dialogue Graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.engine.Graph(), nil),
			},
		}, nil
	})
}
