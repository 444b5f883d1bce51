// Package convert renders a PDF segment to markdown text.
package convert

import (
	"context"
	"fmt"
	"strings"
)

// Converter turns PDF bytes into markdown.
type Converter interface {
	Convert(ctx context.Context, pdf []byte) (string, error)
	Name() string
}

// Format is what an external converter writes.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Ext is the output file extension handed to external converters.
func (f Format) Ext() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Options selects and configures a converter.
type Options struct {
	Kind              string // "builtin" or "command"
	Command           string // Command line for Kind "command", split on whitespace
	Format            string // "markdown" or "html"
	FallbackPdftotext bool
}

// New builds the converter described by opts.
func New(opts Options) (Converter, error) {
	switch strings.ToLower(opts.Kind) {
	case "", "builtin":
		return &Builtin{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case "command":
		fields := strings.Fields(opts.Command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("converter command is required")
		}
		format, err := ParseFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		return &Command{Path: fields[0], Args: fields[1:], Format: format}, nil
	default:
		return nil, fmt.Errorf("unknown converter %q (want builtin or command)", opts.Kind)
	}
}

// ParseFormat validates an output format name. Empty selects markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown converter format %q (want markdown or html)", s)
}
