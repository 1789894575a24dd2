//go:build test

package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmori/go-binstrings/internal/classification"
	"github.com/hmori/go-binstrings/internal/container"
)

func findByText(found []FoundString, text string) (FoundString, bool) {
	for _, fs := range found {
		if fs.Text == text {
			return fs, true
		}
	}
	return FoundString{}, false
}

func TestScannerASCII(t *testing.T) {
	section := []byte("\x00hello world\x00ab\x00longer string here\x00")
	buf := append(make([]byte, 16), section...)

	info := &container.ContainerInfo{
		Format: container.FormatELF,
		Sections: []container.SectionInfo{
			{Name: ".rodata", Offset: 16, Size: uint64(len(section)), RVA: 0x2000,
				Type: container.SectionStringData, Weight: 10.0},
		},
	}

	found := NewScanner(Options{}).Scan(buf, info)
	require.Len(t, found, 2, "the two-byte run stays below the minimum length")

	hello, ok := findByText(found, "hello world")
	require.True(t, ok)
	assert.Equal(t, EncodingASCII, hello.Encoding)
	assert.Equal(t, uint64(17), hello.Offset)
	assert.Equal(t, uint64(0x2001), hello.RVA)
	assert.Equal(t, ".rodata", hello.Section)
	assert.Equal(t, uint32(11), hello.Length)
	assert.Equal(t, SourceSectionData, hello.Source)

	_, ok = findByText(found, "longer string here")
	assert.True(t, ok)
}

func TestScannerMinLength(t *testing.T) {
	section := []byte("abc\x00abcdefgh\x00")
	info := &container.ContainerInfo{
		Sections: []container.SectionInfo{
			{Name: ".rodata", Offset: 0, Size: uint64(len(section)),
				Type: container.SectionStringData, Weight: 10.0},
		},
	}

	found := NewScanner(Options{MinLength: 8}).Scan(section, info)
	require.Len(t, found, 1)
	assert.Equal(t, "abcdefgh", found[0].Text)
}

func TestScannerUTF16LE(t *testing.T) {
	section := []byte("w\x00i\x00d\x00e\x00s\x00t\x00r\x00\x00\x00")
	info := &container.ContainerInfo{
		Sections: []container.SectionInfo{
			{Name: ".rdata", Offset: 0, Size: uint64(len(section)), RVA: 0x3000,
				Type: container.SectionStringData, Weight: 10.0},
		},
	}

	found := NewScanner(Options{}).Scan(section, info)
	require.Len(t, found, 1)
	assert.Equal(t, "widestr", found[0].Text)
	assert.Equal(t, EncodingUTF16LE, found[0].Encoding)
	assert.Equal(t, uint64(0x3000), found[0].RVA)
	assert.Equal(t, uint32(14), found[0].Length, "length counts bytes, not characters")

	none := NewScanner(Options{DisableUTF16: true}).Scan(section, info)
	assert.Empty(t, none)
}

func TestScannerClampsSectionExtents(t *testing.T) {
	buf := append(make([]byte, 8), []byte("trailing text")...)
	info := &container.ContainerInfo{
		Sections: []container.SectionInfo{
			// Declared size runs far past the end of the buffer.
			{Name: ".big", Offset: 8, Size: 1 << 20,
				Type: container.SectionStringData, Weight: 10.0},
			// Starts entirely outside the buffer.
			{Name: ".gone", Offset: 1 << 30, Size: 16,
				Type: container.SectionStringData, Weight: 10.0},
		},
	}

	found := NewScanner(Options{}).Scan(buf, info)
	require.Len(t, found, 1)
	assert.Equal(t, "trailing text", found[0].Text)
	assert.Equal(t, ".big", found[0].Section)
}

func TestScannerSkipsCodeSectionsByDefault(t *testing.T) {
	section := []byte("looks like text\x00")
	info := &container.ContainerInfo{
		Sections: []container.SectionInfo{
			{Name: ".text", Offset: 0, Size: uint64(len(section)),
				Type: container.SectionCode, Weight: 1.0},
		},
	}

	assert.Empty(t, NewScanner(Options{}).Scan(section, info))

	found := NewScanner(Options{IncludeCodeSections: true}).Scan(section, info)
	require.Len(t, found, 1)
	assert.Equal(t, "looks like text", found[0].Text)
}

func TestScannerSymbolStrings(t *testing.T) {
	info := &container.ContainerInfo{
		Format: container.FormatPE,
		Imports: []container.ImportInfo{
			{Name: "CreateFileW", Library: "KERNEL32.dll"},
		},
		Exports: []container.ExportInfo{
			{Name: "InitLibrary", Address: 0x1100},
		},
	}

	found := NewScanner(Options{}).Scan(nil, info)
	require.Len(t, found, 2)

	imp, ok := findByText(found, "CreateFileW")
	require.True(t, ok)
	assert.Equal(t, SourceImportName, imp.Source)
	assert.Contains(t, imp.Tags, classification.TagImport)

	exp, ok := findByText(found, "InitLibrary")
	require.True(t, ok)
	assert.Equal(t, SourceExportName, exp.Source)
	assert.Contains(t, exp.Tags, classification.TagExport)
	assert.Equal(t, uint64(0x1100), exp.RVA)
}

func TestScannerRanksByScore(t *testing.T) {
	rodata := []byte("string table entry\x00")
	data := []byte("writable blob here\x00")
	buf := append(append([]byte{}, rodata...), data...)

	info := &container.ContainerInfo{
		Sections: []container.SectionInfo{
			{Name: ".data", Offset: uint64(len(rodata)), Size: uint64(len(data)),
				Type: container.SectionWritableData, Weight: 5.0},
			{Name: ".rodata", Offset: 0, Size: uint64(len(rodata)),
				Type: container.SectionStringData, Weight: 10.0},
		},
	}

	found := NewScanner(Options{}).Scan(buf, info)
	require.Len(t, found, 2)
	assert.Equal(t, ".rodata", found[0].Section)
	assert.Equal(t, ".data", found[1].Section)
	assert.Greater(t, found[0].Score, found[1].Score)
}
