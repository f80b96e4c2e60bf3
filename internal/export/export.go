// Package export renders Mermaid source to SVG, PNG, or PDF, either with a
// local mermaid-cli (mmdc) or through the Kroki HTTP API.
package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Format is an image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown image format %q (want svg, png or pdf)", s)
}

// Method selects the renderer.
type Method string

const (
	// MethodAuto tries mmdc and falls back to Kroki.
	MethodAuto   Method = "auto"
	MethodLocal  Method = "local"
	MethodOnline Method = "online"
)

// ParseMethod validates an export method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(s)); m {
	case MethodAuto, MethodLocal, MethodOnline:
		return m, nil
	}
	return "", fmt.Errorf("unknown export method %q (want auto, local or online)", s)
}

const (
	DefaultKrokiURL = "https://kroki.io"
	mmdcBinary      = "mmdc"
	localTimeout    = 60 * time.Second
)

// Options configures an Exporter.
type Options struct {
	Format     Format
	Method     Method
	Background string
	Theme      string
	// Scale is passed to mmdc for PNG output only.
	Scale int
	// Timeout bounds the Kroki request; zero means no limit.
	Timeout  time.Duration
	KrokiURL string
	// Version goes into the User-Agent header.
	Version string
}

// DefaultOptions returns SVG output with automatic method selection.
func DefaultOptions() Options {
	return Options{
		Format:     FormatSVG,
		Method:     MethodAuto,
		Background: "white",
		Theme:      "default",
		Scale:      2,
		Timeout:    30 * time.Second,
		KrokiURL:   DefaultKrokiURL,
		Version:    "dev",
	}
}

// Exporter renders diagrams with fixed options.
type Exporter struct {
	opts   Options
	client *http.Client
	log    logrus.FieldLogger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for fallback and cleanup messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// WithHTTPClient replaces the client used for Kroki requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exporter) {
		e.client = c
	}
}

// New creates an Exporter. Empty option fields take their defaults.
func New(opts Options, options ...Option) *Exporter {
	def := DefaultOptions()
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.Background == "" {
		opts.Background = def.Background
	}
	if opts.Theme == "" {
		opts.Theme = def.Theme
	}
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.KrokiURL == "" {
		opts.KrokiURL = def.KrokiURL
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Exporter{
		opts:   opts,
		client: http.DefaultClient,
		log:    silent,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Export renders diagram with default exporter settings overridden by opts.
func Export(ctx context.Context, diagram, outputPath string, opts Options) (string, error) {
	return New(opts).Export(ctx, diagram, outputPath)
}

// Export writes diagram as an image and returns the path written. An
// outputPath without an extension gets one matching the format.
func (e *Exporter) Export(ctx context.Context, diagram, outputPath string) (string, error) {
	if filepath.Ext(outputPath) == "" {
		outputPath += "." + string(e.opts.Format)
	}

	switch e.opts.Method {
	case MethodLocal:
		if !mmdcAvailable() {
			return "", ErrToolNotFound
		}
		return e.exportLocal(ctx, diagram, outputPath)
	case MethodOnline:
		return e.exportOnline(ctx, diagram, outputPath)
	default:
		if mmdcAvailable() {
			path, err := e.exportLocal(ctx, diagram, outputPath)
			if err == nil {
				return path, nil
			}
			e.log.WithError(err).Debug("mermaid-cli failed, falling back to kroki")
		}
		return e.exportOnline(ctx, diagram, outputPath)
	}
}

func mmdcAvailable() bool {
	_, err := exec.LookPath(mmdcBinary)
	return err == nil
}

// AvailableMethods lists the concrete methods usable right now, local first.
func AvailableMethods() []Method {
	if mmdcAvailable() {
		return []Method{MethodLocal, MethodOnline}
	}
	return []Method{MethodOnline}
}

// Dependency is one external renderer and whether it can be used.
type Dependency struct {
	Name      string
	Available bool
}

// CheckDependencies reports the renderers export can use. Kroki is always
// listed as available since reachability is only known at request time.
func CheckDependencies() []Dependency {
	return []Dependency{
		{Name: "mmdc (mermaid-cli)", Available: mmdcAvailable()},
		{Name: "kroki.io (online)", Available: true},
	}
}
