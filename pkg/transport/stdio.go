package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
)

// StdioTransport reads JSON-RPC requests as brace balanced objects and writes
// one JSON response per line
type StdioTransport struct {
	reader *bufio.Reader
	mu     sync.Mutex
	writer *bufio.Writer
}

// NewStdioTransport creates a new transport that uses stdin/stdout
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a transport over arbitrary streams
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
	}
}

// ReadRequest blocks until a full JSON object has been read
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	raw, err := t.readObject()
	if err != nil {
		if err == io.EOF {
			logger.Info("Received EOF, client disconnected")
		}
		return nil, err
	}
	logger.Debug("Received raw request:", raw)

	request, err := protocol.ParseJsonRpcRequest([]byte(raw))
	if err != nil {
		logger.Error("Failed to parse JSON-RPC request:", err)
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return request, nil
}

// readObject collects bytes until the outermost brace closes, ignoring
// braces inside string literals
func (t *StdioTransport) readObject() (string, error) {
	var data []byte
	var depth int
	var inString, escapeNext, started bool

	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(strings.TrimSpace(string(data))) > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if !started {
			if b != '{' {
				// whitespace and newlines between messages
				continue
			}
			started = true
		}
		data = append(data, b)

		switch {
		case escapeNext:
			escapeNext = false
		case inString && b == '\\':
			escapeNext = true
		case b == '"':
			inString = !inString
		case !inString && b == '{':
			depth++
		case !inString && b == '}':
			depth--
			if depth == 0 {
				return string(data), nil
			}
		}
	}
}

// WriteResponse writes a JSON-RPC response followed by a newline
func (t *StdioTransport) WriteResponse(response *protocol.JsonRpcResponse) error {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response:", err)
		return err
	}
	responseBytes = append(responseBytes, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(responseBytes); err != nil {
		logger.Error("Failed to write response:", err)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		logger.Error("Failed to flush response:", err)
		return err
	}
	logger.Debug("Sent response:", string(responseBytes))
	return nil
}
