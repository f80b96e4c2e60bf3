package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// exportLocal runs mmdc on a temporary copy of the diagram.
func (e *Exporter) exportLocal(ctx context.Context, diagram, outputPath string) (string, error) {
	tmp, err := os.CreateTemp("", "pgmermaid-*.mmd")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary diagram: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(diagram); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write temporary diagram: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write temporary diagram: %w", err)
	}

	args := []string{
		"-i", tmp.Name(),
		"-o", outputPath,
		"-b", e.opts.Background,
		"-t", e.opts.Theme,
	}
	if e.opts.Format == FormatPNG {
		args = append(args, "-s", strconv.Itoa(e.opts.Scale))
	}

	ctx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, mmdcBinary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debugf("executing %s %s", mmdcBinary, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("mermaid-cli: %w", ErrTimeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrToolNotFound
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output := strings.TrimSpace(stderr.String())
			if output == "" {
				output = strings.TrimSpace(stdout.String())
			}
			if output == "" {
				output = "unknown error"
			}
			return "", &ToolError{ExitCode: exitErr.ExitCode(), Output: output}
		}
		return "", fmt.Errorf("failed to run mermaid-cli: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", &ToolError{Output: "output file was not created: " + outputPath}
	}

	return outputPath, nil
}
