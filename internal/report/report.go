// Package report writes validation run reports as markdown and renders them
// to HTML for publishing.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/lineament/tracerepo/internal/schema"
	"github.com/lineament/tracerepo/internal/validation"
)

// Run captures one validation run for reporting.
type Run struct {
	ID           string // unique run identifier
	StartedAt    time.Time
	Duration     time.Duration
	Instructions []validation.UpdateInstruction
}

// NewRun starts a report for a validation run beginning now.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Finish records the instructions and the elapsed time.
func (r *Run) Finish(instructions []validation.UpdateInstruction) {
	r.Instructions = instructions
	r.Duration = time.Since(r.StartedAt)
}

// Markdown renders the run as a markdown document: a header with run
// metadata and one table row per validated pair.
func (r *Run) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Validation run %s\n\n", r.ID)
	fmt.Fprintf(&sb, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Duration: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "- Datasets: %d\n\n", len(r.Instructions))

	sb.WriteString("| Area | Validity | Error |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, instruction := range r.Instructions {
		errText := ""
		if instruction.Err != nil {
			errText = instruction.Err.Error()
		}
		validity := instruction.Values[schema.ColValidity]
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", instruction.AreaName, validity, errText)
	}
	return sb.String()
}

// Write persists the markdown report under dir and returns its path.
func (r *Run) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, "run-"+r.ID+".md")
	if err := os.WriteFile(path, []byte(r.Markdown()), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}

// RenderHTML converts a markdown report file to HTML next to it, returning
// the HTML path.
func RenderHTML(mdPath string) (string, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return "", fmt.Errorf("failed to read report %s: %w", mdPath, err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", fmt.Errorf("failed to render report %s: %w", mdPath, err)
	}

	htmlPath := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".html"
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", htmlPath, err)
	}
	return htmlPath, nil
}
