package export

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound means mmdc is not on PATH.
	ErrToolNotFound = errors.New("mermaid-cli (mmdc) not found; install with: npm install -g @mermaid-js/mermaid-cli")
	// ErrTimeout means the renderer did not answer in time.
	ErrTimeout = errors.New("export timed out")
)

// ToolError is a failed mmdc run.
type ToolError struct {
	ExitCode int
	Output   string
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("mermaid-cli failed with exit code %d", e.ExitCode)
	}
	return "mermaid-cli failed: " + e.Output
}

// NetworkError wraps a transport failure talking to Kroki.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SyntaxError is Kroki rejecting the diagram source (HTTP 400).
type SyntaxError struct {
	Body string
}

func (e *SyntaxError) Error() string {
	return "invalid Mermaid syntax: " + e.Body
}

// StatusError is any other non-2xx answer from Kroki.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kroki API error: HTTP %d", e.Code)
}
