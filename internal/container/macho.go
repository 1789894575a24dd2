package container

import (
	"bytes"
	"debug/macho"
	"fmt"
	"strings"
)

// MachOAnalyzer analyzes Mach-O binaries, including universal (fat)
// archives, using Go's debug/macho package as the structural decoder.
type MachOAnalyzer struct{}

// NewMachOAnalyzer creates a new stateless Mach-O analyzer.
func NewMachOAnalyzer() *MachOAnalyzer {
	return &MachOAnalyzer{}
}

// Detect implements Analyzer. Both thin and universal archives count.
func (a *MachOAnalyzer) Detect(data []byte) bool {
	if _, err := macho.NewFile(bytes.NewReader(data)); err == nil {
		return true
	}
	_, err := macho.NewFatFile(bytes.NewReader(data))
	return err == nil
}

// Parse implements Analyzer. For a universal archive exactly one slice is
// resolved: the first one the decoder enumerates. Its declared extent is
// bounds-checked against the buffer before analysis; an out-of-bounds slice
// is a ParseError, never a silent truncation. Callers wanting another
// architecture must invoke the analyzer on that slice themselves.
func (a *MachOAnalyzer) Parse(data []byte) (*ContainerInfo, error) {
	if f, err := macho.NewFile(bytes.NewReader(data)); err == nil {
		return a.parseThin(f), nil
	}

	fat, err := macho.NewFatFile(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(FormatMachO, "not a Mach-O file", err)
	}
	if len(fat.Arches) == 0 {
		return nil, newParseError(FormatMachO, "invalid universal archive", ErrNoArchitectures)
	}

	arch := fat.Arches[0]
	end := uint64(arch.Offset) + uint64(arch.Size)
	if end > uint64(len(data)) {
		return nil, newParseError(FormatMachO,
			fmt.Sprintf("architecture slice [%d, %d) beyond %d-byte buffer", arch.Offset, end, len(data)),
			ErrArchOutOfBounds)
	}
	return a.parseThin(arch.File), nil
}

// parseThin analyzes a single-architecture Mach-O file.
func (a *MachOAnalyzer) parseThin(f *macho.File) *ContainerInfo {
	sections := make([]SectionInfo, 0, len(f.Sections))
	for _, sec := range f.Sections {
		if sec.Size == 0 {
			continue
		}

		name := sec.Seg + "," + sec.Name
		sectionType := classifyMachOSection(sec.Seg, sec.Name)
		sections = append(sections, SectionInfo{
			Name:       name,
			Offset:     uint64(sec.Offset),
			Size:       sec.Size,
			RVA:        sec.Addr,
			Type:       sectionType,
			Executable: sec.Seg == "__TEXT" && sec.Name == "__text",
			Writable:   sec.Seg == "__DATA" || sec.Seg == "__DATA_DIRTY",
			Weight:     machoSectionWeight(sectionType, sec.Name),
		})
	}

	return &ContainerInfo{
		Format:   FormatMachO,
		Sections: sections,
		Imports:  extractMachOImports(f),
		Exports:  extractMachOExports(f),
	}
}

// classifyMachOSection keys on the (segment, section) pair rather than the
// section name alone; Mach-O section names repeat across segments with
// different meanings (__const under __TEXT vs __DATA_CONST).
func classifyMachOSection(segment, section string) SectionType {
	switch {
	case segment == "__TEXT" && (section == "__cstring" || section == "__const"):
		return SectionStringData
	case section == "__cfstring":
		// Constant CFString literals, wherever the linker placed them.
		return SectionStringData
	case segment == "__DATA_CONST":
		return SectionReadOnlyData
	case segment == "__DATA":
		return SectionWritableData
	case segment == "__TEXT" && (section == "__text" || section == "__stubs" || section == "__stub_helper"):
		return SectionCode
	case segment == "__DWARF":
		return SectionDebug
	case strings.HasPrefix(section, "__debug"):
		return SectionDebug
	default:
		return SectionOther
	}
}

// machoSectionWeight mirrors the ELF weight contract; __cstring is the
// dedicated literal section and scores highest.
func machoSectionWeight(sectionType SectionType, section string) float64 {
	switch sectionType {
	case SectionStringData:
		if section == "__cstring" {
			return 10.0
		}
		return 8.0
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

// extractMachOImports collects symbols whose section reference is the null
// sentinel and whose value is zero; those are resolved by dyld at load time.
// Library attribution is left empty: a Mach-O symbol does not name its
// source library without two-level-namespace ordinal analysis, which is out
// of scope, and guessing would be misleading.
func extractMachOImports(f *macho.File) []ImportInfo {
	if f.Symtab == nil {
		return nil
	}

	var imports []ImportInfo
	for _, sym := range f.Symtab.Syms {
		if sym.Sect != 0 || sym.Value != 0 || sym.Name == "" {
			continue
		}
		imports = append(imports, ImportInfo{Name: sym.Name})
	}
	return imports
}

// extractMachOExports collects symbols with both a section reference and a
// nonzero value. Bare "_" names are linker-generated noise and suppressed.
func extractMachOExports(f *macho.File) []ExportInfo {
	if f.Symtab == nil {
		return nil
	}

	var exports []ExportInfo
	for _, sym := range f.Symtab.Syms {
		if sym.Sect == 0 || sym.Value == 0 {
			continue
		}
		if sym.Name == "_" {
			continue
		}
		exports = append(exports, ExportInfo{
			Name:    sym.Name,
			Address: sym.Value,
		})
	}
	return exports
}
