// Package extraction scans classified container sections for printable
// string runs and normalizes them into FoundString values, tagged and
// scored for ranking.
package extraction

import (
	"log/slog"
	"sort"

	"github.com/hmori/go-binstrings/internal/classification"
	"github.com/hmori/go-binstrings/internal/container"
)

// Encoding identifies the byte encoding of an extracted string.
type Encoding string

const (
	// EncodingASCII marks a run of printable single-byte characters.
	EncodingASCII Encoding = "ascii"

	// EncodingUTF16LE marks a run of printable UTF-16 little-endian
	// characters, the common Windows wide-string layout.
	EncodingUTF16LE Encoding = "utf16le"
)

// StringSource identifies where in the container a string was found.
type StringSource string

const (
	// SourceSectionData marks strings scanned out of section contents.
	SourceSectionData StringSource = "section_data"

	// SourceImportName marks strings taken from the import table.
	SourceImportName StringSource = "import_name"

	// SourceExportName marks strings taken from the export table.
	SourceExportName StringSource = "export_name"
)

// FoundString is one extracted string with its location and ranking
// metadata.
type FoundString struct {
	Text     string               `json:"text"`
	Encoding Encoding             `json:"encoding"`
	Offset   uint64               `json:"offset"`
	RVA      uint64               `json:"rva,omitempty"`
	Section  string               `json:"section,omitempty"`
	Length   uint32               `json:"length"`
	Tags     []classification.Tag `json:"tags,omitempty"`
	Score    int                  `json:"score"`
	Source   StringSource         `json:"source"`
}

// DefaultMinLength is the minimum run length considered a string.
const DefaultMinLength = 4

// symbolTableWeight scores import/export names on par with dedicated
// string sections minus the literal-section premium.
const symbolTableWeight = 8.0

// Options controls a scan.
type Options struct {
	// MinLength is the minimum number of characters per extracted string.
	// Zero means DefaultMinLength.
	MinLength int

	// IncludeCodeSections scans Code and Other sections too. They rarely
	// hold meaningful text, so the default skips them.
	IncludeCodeSections bool

	// DisableUTF16 turns off the UTF-16LE pass.
	DisableUTF16 bool
}

// Scanner extracts strings from analyzed containers. A Scanner is
// stateless and safe for concurrent use.
type Scanner struct {
	opts   Options
	tagger *classification.Tagger
}

// NewScanner creates a Scanner with the given options.
func NewScanner(opts Options) *Scanner {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	return &Scanner{opts: opts, tagger: classification.NewTagger()}
}

// Scan walks the container's sections in descending weight order and
// returns the found strings ranked by score. Section extents that exceed
// the buffer are clamped, never trusted.
func (s *Scanner) Scan(data []byte, info *container.ContainerInfo) []FoundString {
	var found []FoundString

	sections := make([]container.SectionInfo, len(info.Sections))
	copy(sections, info.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Weight > sections[j].Weight
	})

	for _, sec := range sections {
		if !s.opts.IncludeCodeSections &&
			(sec.Type == container.SectionCode || sec.Type == container.SectionOther) {
			continue
		}

		start, end, ok := clampExtent(sec.Offset, sec.Size, uint64(len(data)))
		if !ok {
			slog.Debug("section extent outside buffer, skipping",
				"section", sec.Name, "offset", sec.Offset, "size", sec.Size)
			continue
		}

		found = append(found, s.scanASCII(data[start:end], sec)...)
		if !s.opts.DisableUTF16 {
			found = append(found, s.scanUTF16LE(data[start:end], sec)...)
		}
	}

	found = append(found, s.symbolStrings(info)...)

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Score > found[j].Score
	})
	return found
}

// clampExtent bounds a section's declared (offset, size) extent to the
// buffer. Declared sizes beyond the buffer are truncated; extents starting
// past the end are rejected.
func clampExtent(offset, size, bufLen uint64) (start, end uint64, ok bool) {
	if offset >= bufLen || size == 0 {
		return 0, 0, false
	}
	end = offset + size
	if end < offset || end > bufLen {
		end = bufLen
	}
	return offset, end, true
}

func (s *Scanner) scanASCII(chunk []byte, sec container.SectionInfo) []FoundString {
	var found []FoundString

	runStart := -1
	flush := func(endIdx int) {
		if runStart < 0 {
			return
		}
		if endIdx-runStart >= s.opts.MinLength {
			found = append(found, s.newFoundString(
				string(chunk[runStart:endIdx]), EncodingASCII, sec,
				uint64(runStart), uint64(endIdx-runStart)))
		}
		runStart = -1
	}

	for i, b := range chunk {
		if isPrintableASCII(b) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
	}
	flush(len(chunk))
	return found
}

func (s *Scanner) scanUTF16LE(chunk []byte, sec container.SectionInfo) []FoundString {
	var found []FoundString

	for i := 0; i+1 < len(chunk); {
		if !isPrintableASCII(chunk[i]) || chunk[i+1] != 0 {
			i++
			continue
		}

		start := i
		var text []byte
		for i+1 < len(chunk) && isPrintableASCII(chunk[i]) && chunk[i+1] == 0 {
			text = append(text, chunk[i])
			i += 2
		}
		if len(text) >= s.opts.MinLength {
			found = append(found, s.newFoundString(
				string(text), EncodingUTF16LE, sec,
				uint64(start), uint64(i-start)))
		}
	}
	return found
}

func (s *Scanner) newFoundString(text string, encoding Encoding, sec container.SectionInfo, runOffset, byteLen uint64) FoundString {
	tags := s.tagger.Tag(text)
	return FoundString{
		Text:     text,
		Encoding: encoding,
		Offset:   sec.Offset + runOffset,
		RVA:      sec.RVA + runOffset,
		Section:  sec.Name,
		Length:   uint32(byteLen),
		Tags:     tags,
		Score:    classification.Score(sec.Weight, len(text), tags),
		Source:   SourceSectionData,
	}
}

// symbolStrings surfaces import and export names as found strings so the
// ranking stage sees them alongside section literals.
func (s *Scanner) symbolStrings(info *container.ContainerInfo) []FoundString {
	var found []FoundString

	for _, imp := range info.Imports {
		tags := append(s.tagger.Tag(imp.Name), classification.TagImport)
		found = append(found, FoundString{
			Text:     imp.Name,
			Encoding: EncodingASCII,
			Length:   uint32(len(imp.Name)),
			Tags:     tags,
			Score:    classification.Score(symbolTableWeight, len(imp.Name), tags),
			Source:   SourceImportName,
		})
	}
	for _, exp := range info.Exports {
		tags := append(s.tagger.Tag(exp.Name), classification.TagExport)
		found = append(found, FoundString{
			Text:     exp.Name,
			Encoding: EncodingASCII,
			RVA:      exp.Address,
			Length:   uint32(len(exp.Name)),
			Tags:     tags,
			Score:    classification.Score(symbolTableWeight, len(exp.Name), tags),
			Source:   SourceExportName,
		})
	}
	return found
}

func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}
