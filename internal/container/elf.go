package container

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"strings"
)

// ELFAnalyzer analyzes ELF (Executable and Linkable Format) binaries using
// Go's debug/elf package as the structural decoder.
type ELFAnalyzer struct{}

// NewELFAnalyzer creates a new stateless ELF analyzer.
func NewELFAnalyzer() *ELFAnalyzer {
	return &ELFAnalyzer{}
}

// Detect implements Analyzer.
func (a *ELFAnalyzer) Detect(data []byte) bool {
	_, err := elf.NewFile(bytes.NewReader(data))
	return err == nil
}

// Parse implements Analyzer.
func (a *ELFAnalyzer) Parse(data []byte) (*ContainerInfo, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(FormatELF, "not an ELF file", err)
	}

	sections := make([]SectionInfo, 0, len(f.Sections))
	for i, sec := range f.Sections {
		// Zero-length sections (including the leading null section) carry
		// no extractable content and are never emitted.
		if sec.Size == 0 {
			continue
		}

		name := sec.Name
		if name == "" {
			name = fmt.Sprintf("section_%d", i)
		}

		sectionType := classifyELFSection(name, sec.Flags)
		sections = append(sections, SectionInfo{
			Name:       name,
			Offset:     sec.Offset,
			Size:       sec.Size,
			RVA:        sec.Addr,
			Type:       sectionType,
			Executable: sec.Flags&elf.SHF_EXECINSTR != 0,
			Writable:   sec.Flags&elf.SHF_WRITE != 0,
			Weight:     elfSectionWeight(sectionType, name),
		})
	}

	return &ContainerInfo{
		Format:   FormatELF,
		Sections: sections,
		Imports:  extractELFImports(f),
		Exports:  extractELFExports(f),
	}, nil
}

// classifyELFSection classifies a section from its name and flag bits. The
// executable-instruction flag wins over any name match; the name table below
// is default-terminated so classification is total.
func classifyELFSection(name string, flags elf.SectionFlag) SectionType {
	if flags&elf.SHF_EXECINSTR != 0 {
		return SectionCode
	}

	switch name {
	case ".rodata", ".rodata.str1.1", ".rodata.str1.4", ".rodata.str1.8":
		return SectionStringData
	case ".comment", ".note", ".note.gnu.build-id":
		return SectionStringData
	case ".data.rel.ro", ".data.rel.ro.local":
		return SectionReadOnlyData
	case ".data", ".bss":
		return SectionWritableData
	case ".strtab", ".shstrtab", ".symtab", ".dynsym", ".dynstr":
		return SectionDebug
	}
	if strings.HasPrefix(name, ".debug_") {
		return SectionDebug
	}
	return SectionOther
}

// elfSectionWeight scores a section's likelihood of containing meaningful
// text. The ordering StringData > ReadOnlyData > WritableData > Debug >=
// Code is a design contract relied on by the downstream ranking stage, not
// an implementation detail.
func elfSectionWeight(sectionType SectionType, name string) float64 {
	switch sectionType {
	case SectionStringData:
		switch name {
		case ".rodata", ".rodata.str1.1", ".rodata.str1.4", ".rodata.str1.8":
			// Dedicated literal sections score highest.
			return 10.0
		case ".comment", ".note", ".note.gnu.build-id":
			return 9.0
		default:
			return 8.0
		}
	case SectionReadOnlyData:
		return 7.0
	case SectionWritableData:
		return 5.0
	case SectionDebug:
		return 2.0
	case SectionResources:
		return 8.0
	case SectionCode, SectionOther:
		return 1.0
	default:
		return 1.0
	}
}

// isELFImportCandidate reports whether a symbol is undefined, globally or
// weakly bound, and typed as function/object/no-type. Only such symbols are
// resolved externally at load time.
func isELFImportCandidate(sym elf.Symbol) bool {
	if sym.Section != elf.SHN_UNDEF || sym.Name == "" {
		return false
	}
	bind := elf.ST_BIND(sym.Info)
	if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
		return false
	}
	symType := elf.ST_TYPE(sym.Info)
	return symType == elf.STT_FUNC || symType == elf.STT_OBJECT || symType == elf.STT_NOTYPE
}

// extractELFImports scans the dynamic symbol table and then the static one.
// Static entries are suppressed when a same-named entry already came from
// the dynamic table. Library attribution is intentionally left empty: ELF
// does not expose a symbol-to-library edge without relocation-table
// cross-referencing, and guessing one (e.g. from DT_NEEDED order) would be
// misleading.
func extractELFImports(f *elf.File) []ImportInfo {
	var imports []ImportInfo
	seen := make(map[string]struct{})

	dynsyms, err := f.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		// A malformed .dynsym degrades to an empty dynamic import set; the
		// static table below may still contribute.
		dynsyms = nil
	}
	for _, sym := range dynsyms {
		if !isELFImportCandidate(sym) {
			continue
		}
		if _, dup := seen[sym.Name]; dup {
			continue
		}
		seen[sym.Name] = struct{}{}
		imports = append(imports, ImportInfo{
			Name:    sym.Name,
			Address: sym.Value,
		})
	}

	syms, err := f.Symbols()
	if err != nil {
		return imports
	}
	for _, sym := range syms {
		if !isELFImportCandidate(sym) {
			continue
		}
		if _, dup := seen[sym.Name]; dup {
			continue
		}
		seen[sym.Name] = struct{}{}
		imports = append(imports, ImportInfo{
			Name:    sym.Name,
			Address: sym.Value,
		})
	}

	return imports
}

// extractELFExports collects globally bound, defined, nonzero-valued symbols
// from the dynamic symbol table. Zero-valued "exports" are dropped as noise;
// this filter is specific to ELF and deliberate.
func extractELFExports(f *elf.File) []ExportInfo {
	dynsyms, err := f.DynamicSymbols()
	if err != nil {
		return nil
	}

	var exports []ExportInfo
	for _, sym := range dynsyms {
		if elf.ST_BIND(sym.Info) != elf.STB_GLOBAL {
			continue
		}
		if sym.Section == elf.SHN_UNDEF || sym.Value == 0 {
			continue
		}
		exports = append(exports, ExportInfo{
			Name:    sym.Name,
			Address: sym.Value,
		})
	}
	return exports
}
