// Package report renders comparison results as an HTML page or a JSON document.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

//go:embed report.html.tmpl
var htmlTemplate string

var page = template.Must(template.New("report").Parse(htmlTemplate))

const timestampLayout = "2006-01-02 15:04:05"

// DefaultPath returns the report file name for a run generated at now.
func DefaultPath(now time.Time) string {
	return fmt.Sprintf("api_comparison_report_%s.html", now.Format("20060102_150405"))
}

// WriteHTML renders results to path and returns the path written. An empty
// path uses DefaultPath(generatedAt).
func WriteHTML(path string, results []shadow.Result, generatedAt time.Time) (string, error) {
	if path == "" {
		path = DefaultPath(generatedAt)
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, results, generatedAt); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// RenderHTML writes the HTML report to w.
func RenderHTML(w io.Writer, results []shadow.Result, generatedAt time.Time) error {
	v := pageView{
		GeneratedAt: generatedAt.Format(timestampLayout),
		Summary:     shadow.Summarize(results),
		Sections:    make([]sectionView, 0, len(results)),
	}
	for _, r := range results {
		v.Sections = append(v.Sections, newSection(r))
	}
	if err := page.Execute(w, v); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

// Document is the JSON form of a report.
type Document struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     shadow.Summary  `json:"summary"`
	Results     []shadow.Result `json:"results"`
}

// WriteJSON writes the results and their summary as indented JSON.
func WriteJSON(w io.Writer, results []shadow.Result, generatedAt time.Time) error {
	if results == nil {
		results = []shadow.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{
		GeneratedAt: generatedAt.UTC(),
		Summary:     shadow.Summarize(results),
		Results:     results,
	}); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

type pageView struct {
	GeneratedAt string
	Summary     shadow.Summary
	Sections    []sectionView
}

type sectionView struct {
	Name       string
	Class      string
	StatusText string
	Error      string

	OldStatus string
	NewStatus string
	OldTime   string
	NewTime   string

	Diff    []diffLine
	HasOld  bool
	HasNew  bool
	OldJSON string
	NewJSON string
}

type diffLine struct {
	Class string
	Text  string
}

func newSection(r shadow.Result) sectionView {
	if r.Failed() {
		return sectionView{
			Name:       r.Name,
			Class:      "error",
			StatusText: "⚠️ Error",
			Error:      r.Error,
		}
	}

	s := sectionView{
		Name:       r.Name,
		Class:      "success",
		StatusText: "✅ Match",
		OldStatus:  statusText(r.OldStatus),
		NewStatus:  statusText(r.NewStatus),
		OldTime:    elapsedText(r.OldResponseTime),
		NewTime:    elapsedText(r.NewResponseTime),
	}
	if !r.Match {
		s.Class = "failure"
		s.StatusText = "❌ Mismatch"
		for _, line := range r.Diff {
			s.Diff = append(s.Diff, diffLine{Class: lineClass(line), Text: line})
		}
	}
	if r.Old != nil {
		s.HasOld = true
		s.OldJSON = shadow.Indented(r.Old.Value())
	}
	if r.New != nil {
		s.HasNew = true
		s.NewJSON = shadow.Indented(r.New.Value())
	}
	return s
}

func statusText(code *int) string {
	if code == nil {
		return "n/a"
	}
	return strconv.Itoa(*code)
}

func elapsedText(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3fs", *s)
}

func lineClass(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return "file"
	case strings.HasPrefix(line, "@@"):
		return "hunk"
	case strings.HasPrefix(line, "+"):
		return "add"
	case strings.HasPrefix(line, "-"):
		return "del"
	default:
		return "ctx"
	}
}
