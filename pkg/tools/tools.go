package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

// Handler runs a tool with the decoded "arguments" object of a tools/call
type Handler func(ctx context.Context, params any) (any, error)

// Entry pairs a tool definition with its handler
type Entry struct {
	Tool    protocol.Tool
	Handler Handler
}

// Toolbox carries what the tools need. Service may be nil, the provider
// backed tools then report an error when called.
type Toolbox struct {
	cfg     *samsbet.Config
	service *samsbet.Service
	client  *samsbet.Client
}

// NewToolbox returns the tools bound to cfg, svc and client
func NewToolbox(cfg *samsbet.Config, svc *samsbet.Service, client *samsbet.Client) *Toolbox {
	if cfg == nil {
		cfg = samsbet.DefaultConfig()
	}
	return &Toolbox{cfg: cfg, service: svc, client: client}
}

// Entries lists every tool in registration order
func (tb *Toolbox) Entries() []Entry {
	return []Entry{
		{FairOddsTool(), tb.HandleFairOdds},
		{GenerateLinesTool(), tb.HandleGenerateLines},
		{EntityOddsTool(), tb.HandleEntityOdds},
		{H2HAnalysisTool(), tb.HandleH2HAnalysis},
		{MatchAnalysisTool(), tb.HandleMatchAnalysis},
		{StoredRunTool(), tb.HandleStoredRun},
		{ScheduledEventsTool(), tb.HandleScheduledEvents},
		{LeaguesTool(), tb.HandleLeagues},
	}
}

// decodeArgs converts the loosely typed params into v via JSON
func decodeArgs(params any, v any) error {
	if params == nil {
		return fmt.Errorf("no params given")
	}
	var data []byte
	switch p := params.(type) {
	case json.RawMessage:
		data = p
	case []byte:
		data = p
	default:
		var err error
		if data, err = json.Marshal(params); err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func (tb *Toolbox) requireService() error {
	if tb.service == nil {
		return fmt.Errorf("the provider backed tools are not configured")
	}
	return nil
}

func numberArray(desc string) protocol.ToolProperty {
	return protocol.ToolProperty{Type: "array", Description: desc, Items: &protocol.ToolProperty{Type: "number"}}
}

// containsFold matches names ignoring case and accents
func containsFold(s, sub string) bool {
	return strings.Contains(odds.NormalizeTeamName(s), odds.NormalizeTeamName(sub))
}
