// Package export serializes discovery results into Markdown, plain text, or
// converter-backed PDF/DOCX documents.
package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcpatlas-go/internal/discovery"
)

// Format names a supported output shape.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// ParseFormat matches case-insensitively, defaulting to markdown.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, true
	case "text", "txt", "plain":
		return FormatText, true
	case "pdf":
		return FormatPDF, true
	case "docx", "word":
		return FormatDOCX, true
	default:
		return "", false
	}
}

// Exporter renders discovery results. The exec hooks exist so tests can
// fake out the pandoc binary.
type Exporter struct {
	logger   *zap.Logger
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func New(logger *zap.Logger) *Exporter {
	return &Exporter{
		logger:   logger,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Export renders the result in the requested format. Converter failures
// degrade to the plain-text rendering with a hint; this path never errors.
func (e *Exporter) Export(ctx context.Context, res discovery.Result, format Format) string {
	switch format {
	case FormatText:
		return PlainText(res)
	case FormatPDF, FormatDOCX:
		return e.convert(ctx, res, format)
	default:
		return Markdown(res)
	}
}

// Markdown renders the full document: title, metadata blockquote, ranked
// table, per-resource detail sections and the suggestion list.
func Markdown(res discovery.Result) string {
	var sb strings.Builder
	sb.WriteString("# Learning Resource Discovery\n\n")
	fmt.Fprintf(&sb, "> Query: %s\n", res.Query)
	fmt.Fprintf(&sb, "> Mode: %s\n", res.Mode)
	fmt.Fprintf(&sb, "> Matches: %d\n\n", len(res.Results))

	if len(res.Results) > 0 {
		sb.WriteString("| # | Resource | Type | Difficulty | Score | Official |\n")
		sb.WriteString("|---|----------|------|------------|-------|----------|\n")
		for i, sr := range res.Results {
			r := sr.Resource
			official := "no"
			if r.Official {
				official = "yes"
			}
			fmt.Fprintf(&sb, "| %d | [%s](%s) | %s | %s | %d | %s |\n",
				i+1, r.Title, r.URL, r.Type, r.Difficulty, sr.Score, official)
		}
		sb.WriteString("\n")

		for i, sr := range res.Results {
			r := sr.Resource
			fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, r.Title)
			fmt.Fprintf(&sb, "- ID: `%s`\n- Score: %d\n- URL: %s\n", r.ID, sr.Score, r.URL)
			if r.Author != "" {
				fmt.Fprintf(&sb, "- Author: %s\n", r.Author)
			}
			fmt.Fprintf(&sb, "- Freshness: %s\n", r.Freshness)
			if r.Description != "" {
				sb.WriteString("\n" + r.Description + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if len(res.Suggestions) > 0 {
		sb.WriteString("## Suggestions\n\n")
		for _, s := range res.Suggestions {
			sb.WriteString("- " + s + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// PlainText renders the separator-bar variant of the same document.
func PlainText(res discovery.Result) string {
	bar := strings.Repeat("=", 62)
	var sb strings.Builder
	sb.WriteString(bar + "\n")
	sb.WriteString("LEARNING RESOURCE DISCOVERY\n")
	sb.WriteString(bar + "\n")
	fmt.Fprintf(&sb, "%-14s %s\n", "Query:", res.Query)
	fmt.Fprintf(&sb, "%-14s %s\n", "Mode:", res.Mode)
	fmt.Fprintf(&sb, "%-14s %d\n", "Matches:", len(res.Results))

	for i, sr := range res.Results {
		r := sr.Resource
		sb.WriteString(strings.Repeat("-", 62) + "\n")
		fmt.Fprintf(&sb, "%d. %s (score %d)\n", i+1, r.Title, sr.Score)
		fmt.Fprintf(&sb, "%-14s %s\n", "ID:", r.ID)
		fmt.Fprintf(&sb, "%-14s %s\n", "URL:", r.URL)
		fmt.Fprintf(&sb, "%-14s %s\n", "Type:", r.Type)
		fmt.Fprintf(&sb, "%-14s %s\n", "Difficulty:", r.Difficulty)
	}

	if len(res.Suggestions) > 0 {
		sb.WriteString(strings.Repeat("-", 62) + "\n")
		sb.WriteString("Suggestions:\n")
		for _, s := range res.Suggestions {
			sb.WriteString("  * " + s + "\n")
		}
	}
	sb.WriteString(bar + "\n")
	return sb.String()
}

// convert shells out to pandoc. A missing or failing converter returns the
// plain-text rendering plus a manual-conversion hint.
func (e *Exporter) convert(ctx context.Context, res discovery.Result, format Format) string {
	md := Markdown(res)

	pandoc, err := e.lookPath("pandoc")
	if err != nil {
		e.logger.Warn("pandoc not found, falling back to text", zap.Error(err))
		return fallbackMessage(res, format)
	}

	dir, err := os.MkdirTemp("", "learning-export-*")
	if err != nil {
		e.logger.Warn("temp dir for export failed", zap.Error(err))
		return fallbackMessage(res, format)
	}

	job := uuid.NewString()[:8]
	in := filepath.Join(dir, "result-"+job+".md")
	out := filepath.Join(dir, "result-"+job+"."+string(format))
	if err := os.WriteFile(in, []byte(md), 0o644); err != nil {
		os.RemoveAll(dir)
		return fallbackMessage(res, format)
	}

	start := time.Now()
	err = e.run(ctx, pandoc, in, "-o", out, "--from=markdown", "--standalone")
	info, statErr := os.Stat(out)
	if err != nil || statErr != nil {
		e.logger.Warn("pandoc conversion failed",
			zap.String("format", string(format)), zap.Error(err))
		os.RemoveAll(dir)
		return fallbackMessage(res, format)
	}

	e.logger.Info("export converted",
		zap.String("format", string(format)),
		zap.String("path", out),
		zap.Duration("took", time.Since(start)))
	return fmt.Sprintf("Exported %s to %s (%d bytes).\n", strings.ToUpper(string(format)), out, info.Size())
}

func fallbackMessage(res discovery.Result, format Format) string {
	return fmt.Sprintf(
		"Pandoc is not installed or the %s conversion failed. "+
			"Install pandoc and convert the Markdown manually, or use the text output below.\n\n%s",
		strings.ToUpper(string(format)), PlainText(res))
}
