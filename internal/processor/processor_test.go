package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func process(t *testing.T, input string) map[string]any {
	t.Helper()
	out, err := New(samsbet.DefaultConfig()).ProcessRequest(context.Background(), []byte(input))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	return doc
}

func TestProcessQuery(t *testing.T) {
	doc := process(t, `{"query":"fair_odds 2.1 1.5 2.25","requestId":"r1"}`)
	assert.Equal(t, "r1", doc["requestId"])
	assert.Equal(t, "fair_odds", doc["command"])
	table := doc["result"].(map[string]any)["odds"].([]any)
	require.Len(t, table, 2)
	assert.Equal(t, "quarter_low", table[1].(map[string]any)["kind"])

	doc = process(t, `{"query":"lines 2.7 1"}`)
	lines := doc["result"].(map[string]any)["lines"].([]any)
	assert.Equal(t, []any{1.5, 2.5, 3.5}, lines)
}

func TestProcessCommand(t *testing.T) {
	doc := process(t, `{"command":"entity_odds","params":{"counter":"saves","lines":[2.5],
		"records":[{"entityName":"Rossi","teamName":"Flamengo","matchesPlayed":10,"counters":{"saves":26}}]}}`)
	entities := doc["result"].(map[string]any)["entities"].([]any)
	require.Len(t, entities, 1)
	assert.Equal(t, 2.6, entities[0].(map[string]any)["rate"])
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name, input, code string
	}{
		{"bad json", `{`, CodeInvalidRequest},
		{"empty query", `{"query":"  "}`, CodeInvalidRequest},
		{"not a number", `{"query":"fair_odds two"}`, CodeInvalidRequest},
		{"unknown query", `{"query":"calculate 2 + 2"}`, CodeInvalidRequest},
		{"unknown command", `{"command":"match_analysis","params":{"event_id":1}}`, CodeUnknownCommand},
		{"bad line", `{"query":"fair_odds 1.2 1.1"}`, CodeInvalidInput},
		{"missing counter", `{"command":"entity_odds"}`, CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := process(t, tt.input)
			require.Contains(t, doc, "error")
			assert.Equal(t, tt.code, doc["error"].(map[string]any)["code"])
		})
	}
}
