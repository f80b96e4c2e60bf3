package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// exportOnline posts the diagram to Kroki and writes the response body.
func (e *Exporter) exportOnline(ctx context.Context, diagram, outputPath string) (string, error) {
	url := strings.TrimRight(e.opts.KrokiURL, "/") + "/mermaid/" + string(e.opts.Format)

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(diagram))
	if err != nil {
		return "", fmt.Errorf("failed to build kroki request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/"+string(e.opts.Format))
	req.Header.Set("User-Agent", "pgmermaid/"+e.opts.Version)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return "", &SyntaxError{Body: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &StatusError{Code: resp.StatusCode}
	}

	if e.opts.Format == FormatSVG {
		body = AddSVGBackground(body, e.opts.Background)
	}

	if err := os.WriteFile(outputPath, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	if e.opts.Format == FormatPNG {
		e.flattenPNG(ctx, outputPath)
	}

	return outputPath, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request to kroki: %w", ErrTimeout)
	}
	return &NetworkError{Err: err}
}
