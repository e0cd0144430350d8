package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/guide"
	"github.com/kailas-cloud/jgrants-mcp/internal/logger"
	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
)

// ServerName is announced in serverInfo.
const ServerName = "jgrants-mcp-server"

// maxMessageBytes bounds one newline-delimited stdio message.
const maxMessageBytes = 1024 * 1024

// Server exposes the jGrants use cases as MCP tools, prompts and
// resources. It is transport-agnostic: Run drives it over stdio and
// HTTPHandler over streamable HTTP.
type Server struct {
	tools       []tool
	toolsByName map[string]*tool
	version     string
	logger      *zap.Logger
}

// session is the per-connection protocol state.
type session struct {
	id          string
	initialized atomic.Bool
}

// NewServer registers every tool backed by svc.
func NewServer(svc Services, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{version: version, logger: log}
	s.tools = newTools(svc)
	s.toolsByName = make(map[string]*tool, len(s.tools))
	for i := range s.tools {
		s.toolsByName[s.tools[i].name] = &s.tools[i]
	}
	return s
}

// Run processes newline-delimited JSON-RPC 2.0 messages from input and
// writes responses to output until input reaches EOF or ctx is done.
func (s *Server) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)

	encoder := json.NewEncoder(output)
	sess := &session{}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleMessage(ctx, sess, line)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// handleMessage decodes one raw message and dispatches it. It returns nil
// for notifications.
func (s *Server) handleMessage(ctx context.Context, sess *session, raw []byte) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(json.RawMessage("null"), codeParseError, "parse error: "+err.Error())
	}
	return s.handle(ctx, sess, &req)
}

func (s *Server) handle(ctx context.Context, sess *session, req *request) *response {
	if req == nil {
		return errorResponse(json.RawMessage("null"), codeInvalidRequest, "invalid request")
	}
	if req.JSONRPC != "2.0" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, codeInvalidRequest, "unsupported JSON-RPC version")
	}
	// Notifications have no ID and receive no response.
	if req.isNotification() {
		return nil
	}
	return s.dispatch(ctx, sess, req)
}

// dispatch routes a JSON-RPC request to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, sess *session, req *request) *response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(sess, req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	}

	if !sess.initialized.Load() {
		return errorResponse(req.ID, codeInvalidRequest, "server not initialized (call initialize first)")
	}

	switch req.Method {
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, sess, req)
	case "prompts/list":
		return s.handlePromptsList(req)
	case "prompts/get":
		return s.handlePromptsGet(req)
	case "resources/list":
		return s.handleResourcesList(req)
	case "resources/read":
		return s.handleResourcesRead(req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) handleInitialize(sess *session, req *request) *response {
	if len(req.Params) == 0 {
		return errorResponse(req.ID, codeInvalidParams, "params required for initialize")
	}
	var params initializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid initialize params: "+err.Error())
	}

	sess.initialized.Store(true)
	s.logger.Info("mcp session initialized",
		zap.String("session_id", sess.id),
		zap.String("client", params.ClientInfo.Name),
		zap.String("client_version", params.ClientInfo.Version),
		zap.String("protocol_version", params.ProtocolVersion),
	)

	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: serverCapabilities{
			Tools:     &listCapability{},
			Prompts:   &listCapability{},
			Resources: &listCapability{},
		},
		ServerInfo: serverInfo{
			Name:    ServerName,
			Version: s.version,
		},
		Instructions: "jGrants公開APIの補助金情報を検索・取得します。取得した情報を利用する際は「Jグランツ（jGrants）からの出典」である旨を明記してください。",
	})
}

func (s *Server) handleToolsList(req *request) *response {
	descriptions := make([]toolDescription, 0, len(s.tools))
	for _, t := range s.tools {
		descriptions = append(descriptions, toolDescription{
			Name:        t.name,
			Title:       t.title,
			Description: t.description,
			InputSchema: t.inputSchema,
			Annotations: t.annotations,
		})
	}
	return resultResponse(req.ID, toolsListResult{Tools: descriptions})
}

func (s *Server) handleToolsCall(ctx context.Context, sess *session, req *request) *response {
	if len(req.Params) == 0 {
		return errorResponse(req.ID, codeInvalidParams, "params required for tools/call")
	}
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	t, ok := s.toolsByName[params.Name]
	if !ok {
		return errorResponse(req.ID, codeInvalidParams, "unknown tool: "+params.Name)
	}

	log := logger.FromContextOr(ctx, s.logger).With(zap.String("tool", t.name), zap.String("session_id", sess.id))
	ctx = logger.ContextWithLogger(ctx, log)

	start := time.Now()
	out, err := t.call(ctx, params.Arguments)
	elapsed := time.Since(start)

	result := buildToolResult(out, err)
	status := "ok"
	if result.ErrorInfo != nil {
		status = result.ErrorInfo.Category
	}
	metrics.ToolCallsTotal.WithLabelValues(t.name, status).Inc()
	metrics.ToolCallDuration.WithLabelValues(t.name).Observe(elapsed.Seconds())

	fields := []zap.Field{zap.String("status", status), zap.Duration("latency", elapsed)}
	if err != nil {
		log.Warn("tool_call", append(fields, zap.Error(err))...)
	} else {
		log.Info("tool_call", fields...)
	}

	return resultResponse(req.ID, result)
}

// buildToolResult wraps a tool outcome. Failures carry {"error": msg} as
// structured content so clients reading either block see the message.
func buildToolResult(out any, err error) toolsCallResult {
	if err != nil {
		msg := err.Error()
		return toolsCallResult{
			Content:           []contentBlock{{Type: "text", Text: msg}},
			StructuredContent: map[string]string{"error": msg},
			IsError:           true,
			ErrorInfo:         classifyError(err),
		}
	}

	text, marshalErr := json.Marshal(out)
	if marshalErr != nil {
		return buildToolResult(nil, fmt.Errorf("encode result: %w", marshalErr))
	}
	return toolsCallResult{
		Content:           []contentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: out,
	}
}

func (s *Server) handlePromptsList(req *request) *response {
	prompts := guide.Prompts()
	out := make([]promptDescription, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, promptDescription{Name: p.Name, Description: p.Description})
	}
	return resultResponse(req.ID, promptsListResult{Prompts: out})
}

func (s *Server) handlePromptsGet(req *request) *response {
	var params promptsGetParams
	if len(req.Params) == 0 || json.Unmarshal(req.Params, &params) != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid prompts/get params")
	}
	p, ok := guide.FindPrompt(params.Name)
	if !ok {
		return errorResponse(req.ID, codeInvalidParams, "unknown prompt: "+params.Name)
	}
	return resultResponse(req.ID, promptsGetResult{
		Description: p.Description,
		Messages: []promptMessage{
			{Role: "user", Content: contentBlock{Type: "text", Text: p.Text}},
		},
	})
}

func (s *Server) handleResourcesList(req *request) *response {
	resources := guide.Resources()
	out := make([]resourceDescription, 0, len(resources))
	for _, r := range resources {
		out = append(out, resourceDescription{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}
	return resultResponse(req.ID, resourcesListResult{Resources: out})
}

func (s *Server) handleResourcesRead(req *request) *response {
	var params resourcesReadParams
	if len(req.Params) == 0 || json.Unmarshal(req.Params, &params) != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid resources/read params")
	}
	r, ok := guide.FindResource(params.URI)
	if !ok {
		return errorResponse(req.ID, codeInvalidParams, "unknown resource: "+params.URI)
	}
	return resultResponse(req.ID, resourcesReadResult{
		Contents: []resourceContent{{URI: r.URI, MIMEType: r.MIMEType, Text: r.Text}},
	})
}

func resultResponse(id json.RawMessage, result any) *response {
	return &response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}
