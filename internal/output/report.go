// Package output renders analysis results as a versioned JSON record or a
// human-readable text report.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hmori/go-binstrings/internal/classification"
	"github.com/hmori/go-binstrings/internal/color"
	"github.com/hmori/go-binstrings/internal/container"
	"github.com/hmori/go-binstrings/internal/extraction"
)

// CurrentSchemaVersion is the current report schema version. Increment this
// when making breaking changes to the JSON report format.
const CurrentSchemaVersion = 1

// Score tiers for text rendering.
const (
	highScoreThreshold = 100
	midScoreThreshold  = 60
)

// SectionSummary is the per-section slice of a report.
type SectionSummary struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Size       uint64  `json:"size"`
	Weight     float64 `json:"weight"`
	Executable bool    `json:"executable,omitempty"`
	Writable   bool    `json:"writable,omitempty"`
}

// Report is one complete analysis result.
type Report struct {
	// SchemaVersion identifies the report format version.
	SchemaVersion int `json:"schema_version"`

	// ID is a ULID identifying this analysis run.
	ID string `json:"id"`

	// GeneratedAt is when the report was produced, in UTC.
	GeneratedAt time.Time `json:"generated_at"`

	// FilePath is the path of the analyzed file as given by the user.
	FilePath string `json:"file_path"`

	// FileSize is the analyzed file's size in bytes.
	FileSize int64 `json:"file_size"`

	// Format names the detected container format.
	Format string `json:"format"`

	Sections []SectionSummary `json:"sections"`

	ImportCount int `json:"import_count"`
	ExportCount int `json:"export_count"`

	// Strings holds the extracted strings in rank order, truncated to the
	// configured limit.
	Strings []extraction.FoundString `json:"strings"`

	// TotalStrings counts all extracted strings before truncation.
	TotalStrings int `json:"total_strings"`
}

// NewReport assembles a report from the analysis results. A positive top
// truncates the string list to the top N by rank; zero keeps everything.
func NewReport(filePath string, fileSize int64, info *container.ContainerInfo, found []extraction.FoundString, top int) *Report {
	sections := make([]SectionSummary, 0, len(info.Sections))
	for _, sec := range info.Sections {
		sections = append(sections, SectionSummary{
			Name:       sec.Name,
			Type:       sec.Type.String(),
			Size:       sec.Size,
			Weight:     sec.Weight,
			Executable: sec.Executable,
			Writable:   sec.Writable,
		})
	}

	total := len(found)
	if top > 0 && len(found) > top {
		found = found[:top]
	}

	return &Report{
		SchemaVersion: CurrentSchemaVersion,
		ID:            ulid.Make().String(),
		GeneratedAt:   time.Now().UTC(),
		FilePath:      filePath,
		FileSize:      fileSize,
		Format:        info.Format.String(),
		Sections:      sections,
		ImportCount:   len(info.Imports),
		ExportCount:   len(info.Exports),
		Strings:       found,
		TotalStrings:  total,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteText writes the human-readable report.
func (r *Report) WriteText(w io.Writer, pal color.Palette) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s (%s, %d bytes)\n", pal.Heading("File:"), r.FilePath, r.Format, r.FileSize)
	fmt.Fprintf(&b, "%s %s\n", pal.Muted("Run:"), pal.Muted(r.ID))
	fmt.Fprintf(&b, "%s %d imports, %d exports\n\n", pal.Heading("Symbols:"), r.ImportCount, r.ExportCount)

	fmt.Fprintf(&b, "%s\n", pal.Heading("Sections:"))
	for _, sec := range r.Sections {
		flags := sectionFlags(sec)
		fmt.Fprintf(&b, "  %-24s %-14s %8d bytes  weight %.1f%s\n",
			sec.Name, sec.Type, sec.Size, sec.Weight, flags)
	}

	fmt.Fprintf(&b, "\n%s", pal.Heading("Strings"))
	if r.TotalStrings > len(r.Strings) {
		fmt.Fprintf(&b, " %s", pal.Muted(fmt.Sprintf("(top %d of %d)", len(r.Strings), r.TotalStrings)))
	}
	fmt.Fprintf(&b, "%s\n", pal.Heading(":"))

	for _, fs := range r.Strings {
		colorize := scoreColor(pal, fs.Score)
		fmt.Fprintf(&b, "  %4d %s %s", fs.Score, pal.Muted(locationOf(fs)), colorize(fs.Text))
		if len(fs.Tags) > 0 {
			fmt.Fprintf(&b, " %s", pal.Tag(formatTags(fs.Tags)))
		}
		fmt.Fprintln(&b)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func sectionFlags(sec SectionSummary) string {
	switch {
	case sec.Executable && sec.Writable:
		return "  [WX]"
	case sec.Executable:
		return "  [X]"
	case sec.Writable:
		return "  [W]"
	}
	return ""
}

func scoreColor(pal color.Palette, score int) color.Color {
	switch {
	case score >= highScoreThreshold:
		return pal.HighScore
	case score >= midScoreThreshold:
		return pal.MidScore
	}
	return pal.LowScore
}

// locationOf renders where a string came from, section plus offset for
// scanned strings and the symbol table otherwise.
func locationOf(fs extraction.FoundString) string {
	switch fs.Source {
	case extraction.SourceImportName:
		return "[import]"
	case extraction.SourceExportName:
		return "[export]"
	}
	return fmt.Sprintf("[%s+0x%x]", fs.Section, fs.Offset)
}

func formatTags(tags []classification.Tag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = string(tag)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
