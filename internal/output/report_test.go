//go:build test

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmori/go-binstrings/internal/classification"
	"github.com/hmori/go-binstrings/internal/color"
	"github.com/hmori/go-binstrings/internal/container"
	"github.com/hmori/go-binstrings/internal/extraction"
)

func sampleResults() (*container.ContainerInfo, []extraction.FoundString) {
	info := &container.ContainerInfo{
		Format: container.FormatELF,
		Sections: []container.SectionInfo{
			{Name: ".text", Size: 64, Type: container.SectionCode, Weight: 1.0, Executable: true},
			{Name: ".rodata", Size: 32, Type: container.SectionStringData, Weight: 10.0},
		},
		Imports: []container.ImportInfo{{Name: "malloc"}},
	}
	found := []extraction.FoundString{
		{Text: "https://example.com/update", Encoding: extraction.EncodingASCII,
			Section: ".rodata", Offset: 0x40, Score: 130,
			Tags: []classification.Tag{classification.TagURL}, Source: extraction.SourceSectionData},
		{Text: "malloc", Encoding: extraction.EncodingASCII, Score: 95,
			Tags: []classification.Tag{classification.TagImport}, Source: extraction.SourceImportName},
		{Text: "plain", Encoding: extraction.EncodingASCII,
			Section: ".rodata", Offset: 0x60, Score: 40, Source: extraction.SourceSectionData},
	}
	return info, found
}

func TestNewReport(t *testing.T) {
	info, found := sampleResults()
	report := NewReport("/tmp/sample.bin", 4096, info, found, 0)

	assert.Equal(t, CurrentSchemaVersion, report.SchemaVersion)
	assert.Len(t, report.ID, 26, "ULID is 26 characters")
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, "elf", report.Format)
	require.Len(t, report.Sections, 2)
	assert.Equal(t, ".text", report.Sections[0].Name)
	assert.True(t, report.Sections[0].Executable)
	assert.Equal(t, 1, report.ImportCount)
	assert.Equal(t, 0, report.ExportCount)
	assert.Len(t, report.Strings, 3)
	assert.Equal(t, 3, report.TotalStrings)
}

func TestNewReportUniqueIDs(t *testing.T) {
	info, found := sampleResults()
	first := NewReport("a", 0, info, found, 0)
	second := NewReport("a", 0, info, found, 0)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNewReportTruncatesToTop(t *testing.T) {
	info, found := sampleResults()
	report := NewReport("/tmp/sample.bin", 4096, info, found, 2)

	require.Len(t, report.Strings, 2)
	assert.Equal(t, 3, report.TotalStrings)
	assert.Equal(t, "https://example.com/update", report.Strings[0].Text)
}

func TestWriteJSON(t *testing.T) {
	info, found := sampleResults()
	report := NewReport("/tmp/sample.bin", 4096, info, found, 0)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, CurrentSchemaVersion, decoded["schema_version"])
	assert.Equal(t, "elf", decoded["format"])
	assert.Equal(t, report.ID, decoded["id"])

	strs, ok := decoded["strings"].([]any)
	require.True(t, ok)
	assert.Len(t, strs, 3)
}

func TestWriteText(t *testing.T) {
	info, found := sampleResults()
	report := NewReport("/tmp/sample.bin", 4096, info, found, 2)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, color.NewPalette(false)))
	text := buf.String()

	assert.Contains(t, text, "/tmp/sample.bin")
	assert.Contains(t, text, "elf")
	assert.Contains(t, text, "1 imports, 0 exports")
	assert.Contains(t, text, ".rodata")
	assert.Contains(t, text, "[X]")
	assert.Contains(t, text, "(top 2 of 3)")
	assert.Contains(t, text, "https://example.com/update")
	assert.Contains(t, text, "{url}")
	assert.Contains(t, text, "[import]")
	assert.NotContains(t, text, "plain", "truncated entries are not rendered")
	assert.NotContains(t, text, "\033[", "disabled palette emits no escape codes")
}

func TestWriteTextColorized(t *testing.T) {
	info, found := sampleResults()
	report := NewReport("/tmp/sample.bin", 4096, info, found, 0)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, color.NewPalette(true)))
	assert.True(t, strings.Contains(buf.String(), "\033["))
}
