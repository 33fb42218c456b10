package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/transport"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// session feeds the requests to a fresh server and returns the responses in
// the order they were written
func session(t *testing.T, requests ...string) []protocol.JsonRpcResponse {
	t.Helper()
	var out bytes.Buffer
	tr := transport.NewStreamTransport(strings.NewReader(strings.Join(requests, "\n")), &out)
	s := NewDefault(tr, samsbet.DefaultConfig(), nil, nil, "")
	require.NoError(t, s.ProcessRequests(context.Background()))

	var resps []protocol.JsonRpcResponse
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var r protocol.JsonRpcResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		resps = append(resps, r)
	}
	return resps
}

func TestInitializeAndList(t *testing.T) {
	resps := session(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"prompts/list"}`,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	)
	require.Len(t, resps, 5, "the notification gets no response")

	var init struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      struct{ Name string }
	}
	require.NoError(t, json.Unmarshal(resps[0].Result, &init))
	assert.Equal(t, "2025-03-26", init.ProtocolVersion)
	assert.Contains(t, init.Capabilities, "tools")
	assert.Contains(t, init.Capabilities, "resources")
	assert.Contains(t, init.Capabilities, "prompts")
	assert.Equal(t, Name, init.ServerInfo.Name)

	var tools struct{ Tools []protocol.Tool }
	require.NoError(t, json.Unmarshal(resps[1].Result, &tools))
	assert.Len(t, tools.Tools, 8)
	assert.Equal(t, "fair_odds", tools.Tools[0].Name)

	var res struct{ Resources []protocol.Resource }
	require.NoError(t, json.Unmarshal(resps[2].Result, &res))
	assert.Len(t, res.Resources, 2)

	var prompts struct{ Prompts []protocol.Prompt }
	require.NoError(t, json.Unmarshal(resps[3].Result, &prompts))
	assert.Len(t, prompts.Prompts, 2)

	assert.JSONEq(t, `{}`, string(resps[4].Result))
}

func TestToolsCall(t *testing.T) {
	resps := session(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"fair_odds","arguments":{"lambda":2,"lines":[2.5]}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"fair_odds","arguments":{"lambda":2,"lines":[1.1]}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"mcp___generate_lines","arguments":{"expected":2.7,"spread":1}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"match_analysis","arguments":{"event_id":1}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"invoke_tool","params":{"name":"generate_lines","parameters":{"expected":1}}}`,
	)
	require.Len(t, resps, 6)

	var result protocol.ToolResult
	require.NoError(t, json.Unmarshal(resps[0].Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Contains(t, result.Content[0].Text, `"probOver"`)
	assert.False(t, result.IsError)

	require.NotNil(t, resps[1].Error)
	assert.Equal(t, protocol.ErrInvalidParams, resps[1].Error.Code)

	require.Nil(t, resps[2].Error)
	assert.Contains(t, string(resps[2].Result), "3.5")

	require.NotNil(t, resps[3].Error)
	assert.Equal(t, protocol.ErrToolExecutionFailed, resps[3].Error.Code)

	require.NotNil(t, resps[4].Error)
	assert.Equal(t, protocol.ErrInvalidParams, resps[4].Error.Code)

	assert.Nil(t, resps[5].Error)
}

func TestResourcesAndPrompts(t *testing.T) {
	resps := session(t,
		`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"samsbet://guides/asian-lines"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"samsbet://missing"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"asian_lines","arguments":{"line":"2.75","expected_goals":"2.4"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"prompts/get","params":{"name":"asian_lines"}}`,
	)
	require.Len(t, resps, 4)

	var read struct{ Contents []protocol.ResourceContents }
	require.NoError(t, json.Unmarshal(resps[0].Result, &read))
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "**Line 2.25**")

	require.NotNil(t, resps[1].Error)
	assert.Equal(t, protocol.ErrInvalidParams, resps[1].Error.Code)

	var got struct{ Messages []protocol.PromptMessage }
	require.NoError(t, json.Unmarshal(resps[2].Result, &got))
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content.Text, "line 2.75")

	require.NotNil(t, resps[3].Error, "required prompt arguments are enforced")
}

func TestMalformedAndUnknownRequests(t *testing.T) {
	resps := session(t,
		`{"jsonrpc":"1.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"does/not/exist"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":"oops"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	)
	require.Len(t, resps, 4)
	assert.Equal(t, protocol.ErrParse, resps[0].Error.Code)
	assert.Nil(t, resps[0].ID)
	assert.Equal(t, protocol.ErrMethodNotFound, resps[1].Error.Code)
	assert.Equal(t, protocol.ErrInvalidParams, resps[2].Error.Code)
	assert.Nil(t, resps[3].Error, "the stream survives bad messages")
	assert.EqualValues(t, 4, resps[3].ID)
}
