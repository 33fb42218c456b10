package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/prompts"
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/resources"
	"github.com/SammMarshall/samsbet/pkg/tools"
	"github.com/SammMarshall/samsbet/pkg/transport"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

// Name and Version are reported to clients on initialize
const (
	Name    = "samsbet"
	Version = "1.0.0"
)

// legacy clients prefix tool names with this
const toolPrefix = "mcp___"

// HandlerFunc handles one JSON-RPC method. A nil result with a nil error
// means no response is sent.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Server is an MCP server over a single transport
type Server struct {
	transport transport.Transport
	mu        sync.RWMutex
	handlers  map[string]HandlerFunc
	tools     []protocol.Tool
	toolFuncs map[string]tools.Handler
	resources *resources.Registry
	prompts   *prompts.PromptRegistry
}

// New returns a server answering on t. Nil resources or prompts disable
// those capabilities.
func New(t transport.Transport, res *resources.Registry, pr *prompts.PromptRegistry) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFuncs: make(map[string]tools.Handler),
		resources: res,
		prompts:   pr,
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodInitialized)] = s.handleInitialized
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodInvokeTool)] = s.handleInvokeTool
	s.handlers[string(protocol.MethodResourcesList)] = s.handleResourcesList
	s.handlers[string(protocol.MethodResourcesRead)] = s.handleResourcesRead
	s.handlers[string(protocol.MethodPromptsList)] = s.handlePromptsList
	s.handlers[string(protocol.MethodPromptsGet)] = s.handlePromptsGet
	return s
}

// NewDefault wires every samsbet tool, the guides and the prompt registry
func NewDefault(t transport.Transport, cfg *samsbet.Config, svc *samsbet.Service, client *samsbet.Client, promptDir string) *Server {
	s := New(t, resources.NewRegistry(), prompts.NewPromptRegistry(promptDir))
	s.RegisterToolbox(tools.NewToolbox(cfg, svc, client))
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler tools.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	s.toolFuncs[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterToolbox registers every tool of tb
func (s *Server) RegisterToolbox(tb *tools.Toolbox) {
	for _, e := range tb.Entries() {
		s.RegisterTool(e.Tool, e.Handler)
	}
}

// GetTools returns the registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// Start serves until the transport closes or SIGINT/SIGTERM arrives
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down:", context.Cause(ctx))
		return nil
	}
}

// ProcessRequests reads and answers requests until the transport ends.
// A clean end of input returns nil.
func (s *Server) ProcessRequests(ctx context.Context) error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			if transport.IsParseError(err) {
				resp := protocol.NewJsonRpcErrorResponse(protocol.ErrParse, err.Error(), nil, nil)
				if err := s.transport.WriteResponse(resp); err != nil {
					return err
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		// nil means no response is required
		resp := s.handleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// handleRequest processes a request and returns a response
func (s *Server) handleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	if reqBytes, err := json.Marshal(req); err == nil {
		logger.Inform("Full request:", string(reqBytes))
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	s.mu.RLock()
	handler := s.handlers[req.Method]
	s.mu.RUnlock()
	if handler == nil {
		if req.IsNotification() {
			return nil
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound, "Method not found: "+req.Method, nil, req.ID)
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		logger.Warn("Request failed:", req.Method, err)
		return errorResponse(err, req.ID)
	}
	if result == nil || req.IsNotification() {
		return nil
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("output \n", string(resultBytes))
	return &protocol.JsonRpcResponse{JsonRPC: protocol.JsonRpcVersion, Result: resultBytes, ID: req.ID}
}

// errorResponse keeps the code of a *JsonRpcError, bad input is reported as
// invalid params and anything else as a failed tool execution
func errorResponse(err error, id any) *protocol.JsonRpcResponse {
	var rpcErr *protocol.JsonRpcError
	switch {
	case errors.As(err, &rpcErr):
		return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, rpcErr.Data, id)
	case errors.Is(err, odds.ErrInvalidInput):
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInvalidParams, err.Error(), nil, id)
	default:
		return protocol.NewJsonRpcErrorResponse(protocol.ErrToolExecutionFailed, err.Error(), nil, id)
	}
}

func invalidParams(format string, args ...any) error {
	return &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// decode unmarshals params into v, absent params leave v untouched
func decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams("invalid parameters: %v", err)
	}
	return nil
}

// handleInitialize answers with the requested protocol version and the
// capabilities we actually have
func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.ProtocolVersion == "" {
		p.ProtocolVersion = "2024-11-05"
	}
	logger.Info("Using protocol version:", p.ProtocolVersion)

	capabilities := map[string]any{}
	if len(s.GetTools()) > 0 {
		capabilities["tools"] = map[string]any{"listChanged": false}
	}
	if s.resources != nil {
		capabilities["resources"] = map[string]any{"listChanged": false}
	}
	if s.prompts != nil {
		capabilities["prompts"] = map[string]any{"listChanged": false}
	}

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{p.ProtocolVersion, capabilities, serverInfo{Name, Version}}, nil
}

// handleInitialized does not require a response
func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) (any, error) {
	logger.Info("Client initialized")
	return nil, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (any, error) {
	return struct{}{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (any, error) {
	return struct {
		Tools []protocol.Tool `json:"tools"`
	}{s.GetTools()}, nil
}

func (s *Server) lookupTool(name string) tools.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h := s.toolFuncs[name]; h != nil {
		return h
	}
	return s.toolFuncs[strings.TrimPrefix(name, toolPrefix)]
}

// callTool runs a tool and wraps its output as a tool result
func (s *Server) callTool(ctx context.Context, name string, args any) (any, error) {
	logger.Info("Tool call requested for:", name)
	handler := s.lookupTool(name)
	if handler == nil {
		return nil, invalidParams("tool not found: %s", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	out, err := handler(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s failed: %w", name, err)
	}
	return protocol.NewToolResult(out)
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	var args any
	if len(p.Arguments) > 0 && string(p.Arguments) != "null" {
		args = p.Arguments
	}
	return s.callTool(ctx, p.Name, args)
}

// handleInvokeTool serves the older {"name","parameters"} call form
func (s *Server) handleInvokeTool(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, invalidParams("missing tool name in invoke_tool parameters")
	}
	var args any
	if p.Parameters != nil {
		args = p.Parameters
	}
	return s.callTool(ctx, p.Name, args)
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (any, error) {
	list := []protocol.Resource{}
	if s.resources != nil {
		list = s.resources.List()
	}
	return struct {
		Resources []protocol.Resource `json:"resources"`
	}{list}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if s.resources == nil {
		return nil, invalidParams("no resources available")
	}
	c, err := s.resources.Read(p.URI)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	return struct {
		Contents []protocol.ResourceContents `json:"contents"`
	}{[]protocol.ResourceContents{c}}, nil
}

func (s *Server) handlePromptsList(ctx context.Context, params json.RawMessage) (any, error) {
	list := []protocol.Prompt{}
	if s.prompts != nil {
		var err error
		if list, err = s.prompts.ListPrompts(); err != nil {
			return nil, err
		}
	}
	return struct {
		Prompts []protocol.Prompt `json:"prompts"`
	}{list}, nil
}

// handlePromptsGet renders a prompt with the given arguments
func (s *Server) handlePromptsGet(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments,omitempty"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if s.prompts == nil {
		return nil, invalidParams("no prompts available")
	}
	prompt, content, err := s.prompts.Render(p.Name, p.Arguments)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	return struct {
		Description string                   `json:"description"`
		Messages    []protocol.PromptMessage `json:"messages"`
	}{
		Description: prompt.Description,
		Messages: []protocol.PromptMessage{{
			Role:    "user",
			Content: protocol.PromptContent{Type: "text", Text: content},
		}},
	}, nil
}
