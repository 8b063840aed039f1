package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxStreamLine bounds a single stream record.
const maxStreamLine = 4 * 1024 * 1024

// StreamParser reads a newline-delimited JSON stream of chat chunks as
// written by Ollama's /api/chat endpoint.
type StreamParser struct {
	scanner *bufio.Scanner
}

// NewStreamParser creates a new stream parser
func NewStreamParser(reader io.Reader) *StreamParser {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	return &StreamParser{scanner: scanner}
}

// StreamChunk represents a single chunk from the stream
type StreamChunk struct {
	Content string
	Done    bool
}

// chatChunk is one record of the stream.
type chatChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Next reads the next chunk from the stream. It returns io.ErrUnexpectedEOF
// when the stream ends before a record with done set.
func (p *StreamParser) Next() (*StreamChunk, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, fmt.Errorf("decode stream record: %w", err)
		}
		if chunk.Error != "" {
			return nil, errors.New(chunk.Error)
		}

		return &StreamChunk{
			Content: chunk.Message.Content,
			Done:    chunk.Done,
		}, nil
	}

	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

// ParseAll reads the stream to its final record and returns the
// concatenated message content.
func (p *StreamParser) ParseAll() (string, error) {
	var sb strings.Builder
	for {
		chunk, err := p.Next()
		if err != nil {
			return "", err
		}

		sb.WriteString(chunk.Content)

		if chunk.Done {
			return sb.String(), nil
		}
	}
}
