// Package mcp exposes the Waygate engine as a Model Context Protocol
// server, so agents can drive relocations as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/averycross/waygate"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatusResponse is the structured payload shared by the status tool and
// resource.
type StatusResponse struct {
	InProgress bool                     `json:"in_progress" jsonschema_description:"Whether a transition pipeline is currently running"`
	LastResult *domain.TransitionResult `json:"last_result,omitempty" jsonschema_description:"Result of the most recently completed transition"`
}

// BeginResponse is the structured payload of the begin tool.
type BeginResponse struct {
	Accepted bool   `json:"accepted" jsonschema_description:"Whether the request was accepted"`
	Reason   string `json:"reason,omitempty" jsonschema_description:"Rejection reason, when not accepted"`
}

// Server wraps the Waygate engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.TransitionEngine
	recorder  ports.VisitRecorder // optional
	mcpServer *server.MCPServer

	mu         sync.RWMutex
	lastResult *domain.TransitionResult
}

// NewServer creates a new MCP Server instance. recorder may be nil; the
// list_visited tool then reports unavailability.
func NewServer(engine ports.TransitionEngine, recorder ports.VisitRecorder) *Server {
	s := &Server{
		engine:    engine,
		recorder:  recorder,
		mcpServer: server.NewMCPServer("waygate-mcp", waygate.Version),
	}
	s.registerTools()
	s.registerResources()
	go s.consumeResults()
	return s
}

func (s *Server) consumeResults() {
	for res := range s.engine.Finished() {
		r := res
		s.mu.Lock()
		s.lastResult = &r
		s.mu.Unlock()
	}
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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
		slog.Info("MCP Server listening (SSE)", "address", addr)
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
	// TOOL: begin_transition
	beginTool := mcp.NewTool("begin_transition",
		mcp.WithDescription("Relocate the subject to a destination context. Rejected while another transition runs."),
		mcp.WithString("destination_id", mcp.Description("Context to load and travel to")),
		mcp.WithString("anchor_hint", mcp.Description("Named arrival anchor inside the destination (optional)")),
		mcp.WithNumber("x", mcp.Description("Explicit destination X (optional, requires y and z)")),
		mcp.WithNumber("y", mcp.Description("Explicit destination Y (optional)")),
		mcp.WithNumber("z", mcp.Description("Explicit destination Z (optional)")),
		mcp.WithOutputSchema[BeginResponse](),
	)
	s.mcpServer.AddTool(beginTool, mcp.NewStructuredToolHandler(s.handleBegin))

	// TOOL: transition_status
	statusTool := mcp.NewTool("transition_status",
		mcp.WithDescription("Report whether a transition is running and the last completed result."),
		mcp.WithOutputSchema[StatusResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	// TOOL: list_visited
	s.mcpServer.AddTool(mcp.NewTool("list_visited",
		mcp.WithDescription("List contexts already visited, with the variant observed on arrival."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.recorder == nil {
			return mcp.NewToolResultError("no visit recorder configured"), nil
		}
		visits, err := s.recorder.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(visits)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleBegin(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (BeginResponse, error) {
	req := domain.TransitionRequest{}
	req.DestinationID, _ = args["destination_id"].(string)
	req.AnchorHint, _ = args["anchor_hint"].(string)

	x, xok := args["x"].(float64)
	y, yok := args["y"].(float64)
	z, zok := args["z"].(float64)
	if xok && yok && zok {
		req.CoordinateHint = &domain.Vec3{X: x, Y: y, Z: z}
	}

	// The pipeline outlives the tool call; detach it from the call's
	// cancellation.
	accepted, err := s.engine.Begin(context.WithoutCancel(ctx), req)
	resp := BeginResponse{Accepted: accepted}
	if err != nil {
		resp.Reason = err.Error()
	}
	return resp, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusResponse{
		InProgress: s.engine.InProgress(),
		LastResult: s.lastResult,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: waygate://status
	s.mcpServer.AddResource(mcp.NewResource("waygate://status", "Current Transition Status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		status, _ := s.handleStatus(ctx, mcp.CallToolRequest{}, nil)
		jsonBytes, _ := json.Marshal(status)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "waygate://status",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
