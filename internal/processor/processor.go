package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/tools"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

// Request is one offline engine request. Either Command and Params are set,
// or Query holds a short text form such as "fair_odds 2.1 1.5 2.5".
type Request struct {
	Command   string          `json:"command,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Query     string          `json:"query,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// Response wraps the engine output
type Response struct {
	RequestID string         `json:"requestId,omitempty"`
	Command   string         `json:"command"`
	Result    any            `json:"result"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error codes of ErrorResponse
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidInput   = "invalid_input"
	CodeUnknownCommand = "unknown_command"
	CodeFailed         = "failed"
)

func createErrorResponse(code, message, requestID string) ([]byte, error) {
	var response ErrorResponse
	response.RequestID = requestID
	response.Error.Code = code
	response.Error.Message = message
	return json.MarshalIndent(response, "", "  ")
}

// Processor answers offline requests with the pure engine tools
type Processor struct {
	handlers map[string]tools.Handler
}

// New returns a processor using cfg for default lines, spread and workers
func New(cfg *samsbet.Config) *Processor {
	tb := tools.NewToolbox(cfg, nil, nil)
	return &Processor{handlers: map[string]tools.Handler{
		"fair_odds":      tb.HandleFairOdds,
		"generate_lines": tb.HandleGenerateLines,
		"entity_odds":    tb.HandleEntityOdds,
		"h2h_analysis":   tb.HandleH2HAnalysis,
	}}
}

// ProcessRequest processes a JSON request and returns the JSON answer.
// Request level failures are reported inside the returned document.
func (p *Processor) ProcessRequest(ctx context.Context, input []byte) ([]byte, error) {
	var request Request
	if err := json.Unmarshal(input, &request); err != nil {
		logger.Error("Failed to parse input JSON", err)
		return createErrorResponse(CodeInvalidRequest, fmt.Sprintf("Invalid JSON: %v", err), "")
	}

	command, params := request.Command, any(request.Params)
	if command == "" {
		var err error
		if command, params, err = ParseQuery(request.Query); err != nil {
			return createErrorResponse(CodeInvalidRequest, err.Error(), request.RequestID)
		}
	} else if len(request.Params) == 0 {
		params = map[string]any{}
	}
	logger.Info("Processing request", command)

	handler, ok := p.handlers[command]
	if !ok {
		return createErrorResponse(CodeUnknownCommand, "unknown command: "+command, request.RequestID)
	}
	result, err := handler(ctx, params)
	if err != nil {
		code := CodeFailed
		if errors.Is(err, odds.ErrInvalidInput) {
			code = CodeInvalidInput
		}
		return createErrorResponse(code, err.Error(), request.RequestID)
	}

	return json.MarshalIndent(Response{
		RequestID: request.RequestID,
		Command:   command,
		Result:    result,
		Metadata:  map[string]any{"version": "1.0.0"},
	}, "", "  ")
}

// ParseQuery turns the text form into a command and its arguments:
//
//	fair_odds <lambda> [line...]
//	lines <expected> [spread]
func ParseQuery(query string) (string, map[string]any, error) {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty query")
	}
	nums := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a number", f)
		}
		nums = append(nums, v)
	}

	switch fields[0] {
	case "fair_odds", "odds":
		if len(nums) == 0 {
			return "", nil, fmt.Errorf("usage: fair_odds <lambda> [line...]")
		}
		args := map[string]any{"lambda": nums[0]}
		if len(nums) > 1 {
			args["lines"] = nums[1:]
		}
		return "fair_odds", args, nil
	case "generate_lines", "lines":
		if len(nums) == 0 || len(nums) > 2 {
			return "", nil, fmt.Errorf("usage: lines <expected> [spread]")
		}
		args := map[string]any{"expected": nums[0], "with_odds": true}
		if len(nums) == 2 {
			args["spread"] = int(nums[1])
		}
		return "generate_lines", args, nil
	default:
		return "", nil, fmt.Errorf("unknown query %q, use fair_odds or lines, or send a JSON command", fields[0])
	}
}
