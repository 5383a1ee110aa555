// Package mcp exposes the agent catalog and turn execution as an MCP
// server, so editor and assistant clients can drive document extraction
// conversations as tools.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lablia/docflow/internal/logging"
	"github.com/lablia/docflow/pkg/registry"
	"github.com/lablia/docflow/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TurnResult is the structured answer of the run_turn tool.
type TurnResult struct {
	SessionID string `json:"session_id" jsonschema_description:"The session the turn ran in"`
	Reply     string `json:"reply" jsonschema_description:"The assistant's reply text"`
}

// Server wraps the runner and registry as an MCP server.
type Server struct {
	runner    *runner.Runner
	registry  *registry.Registry
	appName   string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures logging for tool execution.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server over the given runner and catalog.
func NewServer(r *runner.Runner, reg *registry.Registry, appName, version string, opts ...Option) *Server {
	s := &Server{
		runner:    r,
		registry:  reg,
		appName:   appName,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("docflow-mcp", version),
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

// ServeSSE starts the server on the given port using SSE, shutting down
// gracefully when the context is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_turn
	runTool := mcp.NewTool("run_turn",
		mcp.WithDescription("Run one conversation turn against a named agent. Creates the session if it does not exist."),
		mcp.WithString("agent", mcp.Required(), mcp.Description("Name of the agent tree to execute")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID")),
		mcp.WithString("text", mcp.Description("User message text")),
		mcp.WithString("model", mcp.Description("Model pretty name or identifier (optional)")),
		mcp.WithString("attachment", mcp.Description("Base64-encoded file content (optional)")),
		mcp.WithString("attachment_filename", mcp.Description("Filename of the attachment (optional)")),
		mcp.WithOutputSchema[TurnResult](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunTurn))

	// TOOL: list_agents
	s.mcpServer.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List the available agent trees."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.agentCatalog())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Get the conversation history of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		history, err := s.runner.History(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(history)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleRunTurn(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResult, error) {
	agentName, _ := args["agent"].(string)
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)
	model, _ := args["model"].(string)

	agent, err := s.registry.Get(agentName)
	if err != nil {
		return TurnResult{}, err
	}

	if _, err := s.runner.CreateSession(ctx, sessionID, s.appName, "mcp"); err != nil {
		return TurnResult{}, fmt.Errorf("session init failed: %w", err)
	}

	input := runner.TurnInput{Text: text, Model: model}
	if encoded, ok := args["attachment"].(string); ok && encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return TurnResult{}, fmt.Errorf("invalid base64 attachment: %w", err)
		}
		filename, _ := args["attachment_filename"].(string)
		input.Attachments = append(input.Attachments, runner.Attachment{
			Data:     data,
			Filename: filename,
		})
	}

	reply, err := s.runner.RunTurn(ctx, agent, sessionID, input)
	if err != nil {
		return TurnResult{}, fmt.Errorf("turn failed: %w", err)
	}

	return TurnResult{SessionID: sessionID, Reply: reply}, nil
}

func (s *Server) agentCatalog() []map[string]string {
	names := s.registry.Names()
	catalog := make([]map[string]string, 0, len(names))
	for _, name := range names {
		agent, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		catalog = append(catalog, map[string]string{
			"name":        agent.Name,
			"kind":        string(agent.Kind),
			"description": agent.Description,
		})
	}
	return catalog
}

func (s *Server) registerResources() {
	// EXPOSE: docflow://agents
	s.mcpServer.AddResource(mcp.NewResource("docflow://agents", "Agent Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.agentCatalog())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "docflow://agents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
