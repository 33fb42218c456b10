package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTransportReadsConsecutiveObjects(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"fair_odds","arguments":{"note":"a } in a string \" {"}},"id":1}
{"jsonrpc":"2.0","method":"notifications/initialized"}
`)
	tr := NewStreamTransport(in, io.Discard)

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "tools/call", req.Method)
	assert.EqualValues(t, 1, req.ID)
	assert.Contains(t, string(req.Params), `a } in a string`)

	req, err = tr.ReadRequest()
	require.NoError(t, err)
	assert.True(t, req.IsNotification())

	_, err = tr.ReadRequest()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamTransportParseError(t *testing.T) {
	tr := NewStreamTransport(strings.NewReader(`{"jsonrpc":"1.0","method":"x"}{"jsonrpc":"2.0","method":"ping","id":2}`), io.Discard)

	_, err := tr.ReadRequest()
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Method)
}

func TestStreamTransportWriteResponse(t *testing.T) {
	var out bytes.Buffer
	tr := NewStreamTransport(strings.NewReader(""), &out)

	resp, err := protocol.NewJsonRpcResponse(map[string]int{"ok": 1}, 7)
	require.NoError(t, err)
	require.NoError(t, tr.WriteResponse(resp))

	assert.True(t, strings.HasSuffix(out.String(), "\n"))
	parsed, err := protocol.ParseJsonRpcResponse(bytes.TrimSpace(out.Bytes()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":1}`, string(parsed.Result))
}

func TestFetchDecodesEncodings(t *testing.T) {
	body := `{"event":{"id":42}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BrowserUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			bw.Write([]byte(body))
			bw.Close()
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			gw := gzip.NewWriter(w)
			gw.Write([]byte(body))
			gw.Close()
		case "/plain":
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(5*time.Second, "")
	for _, path := range []string{"/br", "/gzip", "/plain"} {
		t.Run(path, func(t *testing.T) {
			data, err := Fetch(context.Background(), client, srv.URL+path, nil)
			require.NoError(t, err)
			assert.JSONEq(t, body, string(data))
		})
	}

	_, err := Fetch(context.Background(), client, srv.URL+"/missing", nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
