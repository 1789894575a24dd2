package container

import (
	"bytes"
	"debug/pe"
	"fmt"
	"strings"
)

// maxPEExportEntries bounds the number of export slots walked per binary.
// The export directory's counts are attacker-controlled; without a cap a
// hostile header could declare billions of slots.
const maxPEExportEntries = 1 << 16

// PEAnalyzer analyzes PE/COFF (Portable Executable) binaries using Go's
// debug/pe package as the structural decoder. The export directory, which
// debug/pe does not surface, is decoded by the thin reader in
// readPEExportTable.
type PEAnalyzer struct{}

// NewPEAnalyzer creates a new stateless PE analyzer.
func NewPEAnalyzer() *PEAnalyzer {
	return &PEAnalyzer{}
}

// Detect implements Analyzer.
func (a *PEAnalyzer) Detect(data []byte) bool {
	_, err := pe.NewFile(bytes.NewReader(data))
	return err == nil
}

// Parse implements Analyzer.
func (a *PEAnalyzer) Parse(data []byte) (*ContainerInfo, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(FormatPE, "not a PE file", err)
	}

	sections := make([]SectionInfo, 0, len(f.Sections))
	for _, sec := range f.Sections {
		if sec.Size == 0 {
			continue
		}

		name := strings.TrimRight(sec.Name, "\x00")
		sectionType := classifyPESection(name, sec.Characteristics)
		sections = append(sections, SectionInfo{
			Name:       name,
			Offset:     uint64(sec.Offset),
			Size:       uint64(sec.Size),
			RVA:        uint64(sec.VirtualAddress),
			Type:       sectionType,
			Executable: sec.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0,
			Writable:   sec.Characteristics&pe.IMAGE_SCN_MEM_WRITE != 0,
			Weight:     peSectionWeight(sectionType, name),
		})
	}

	return &ContainerInfo{
		Format:   FormatPE,
		Sections: sections,
		Imports:  extractPEImports(f),
		Exports:  extractPEExports(f, data),
	}, nil
}

// classifyPESection classifies a section from its name and characteristics.
// The executable-code characteristic wins over any name match.
func classifyPESection(name string, characteristics uint32) SectionType {
	if characteristics&pe.IMAGE_SCN_CNT_CODE != 0 {
		return SectionCode
	}

	switch name {
	case ".rdata", ".rodata":
		return SectionStringData
	case ".data":
		if characteristics&pe.IMAGE_SCN_MEM_WRITE == 0 {
			return SectionReadOnlyData
		}
		return SectionWritableData
	case ".bss":
		return SectionWritableData
	case ".rsrc":
		return SectionResources
	case ".debug", ".pdata", ".xdata":
		return SectionDebug
	}
	if strings.HasPrefix(name, ".debug") {
		return SectionDebug
	}
	return SectionOther
}

// peSectionWeight mirrors the ELF weight contract: dedicated string data
// ranks highest, then read-only data, writable data, debug, code.
func peSectionWeight(sectionType SectionType, name string) float64 {
	switch sectionType {
	case SectionStringData:
		switch name {
		case ".rdata", ".rodata":
			return 10.0
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
		// The resource segment carries version info and string tables.
		return 8.0
	case SectionCode, SectionOther:
		return 1.0
	default:
		return 1.0
	}
}

// extractPEImports reads the decoded import table. Each entry already
// carries the owning module, so Library is always populated here, unlike
// ELF and Mach-O. debug/pe reports entries as "symbol:DLL" pairs; it does
// not expose per-entry thunk RVAs, so Address stays absent.
func extractPEImports(f *pe.File) []ImportInfo {
	entries, err := f.ImportedSymbols()
	if err != nil {
		// No import table (or a malformed one) degrades to no imports.
		return nil
	}

	imports := make([]ImportInfo, 0, len(entries))
	for _, entry := range entries {
		name, library := entry, ""
		if idx := strings.LastIndex(entry, ":"); idx >= 0 {
			name, library = entry[:idx], entry[idx+1:]
		}
		if name == "" {
			continue
		}
		imports = append(imports, ImportInfo{
			Name:    name,
			Library: library,
		})
	}
	return imports
}

// extractPEExports walks the export directory. Exports lacking a name get
// the synthetic display name "ordinal_<i>" for their zero-based slot index,
// and every export carries that positional index as its ordinal. Zero-RVA
// slots are kept: a zero address is a valid PE export.
func extractPEExports(f *pe.File, data []byte) []ExportInfo {
	table, ok := readPEExportTable(f, data)
	if !ok {
		return nil
	}

	exports := make([]ExportInfo, 0, len(table.functionRVAs))
	for i, rva := range table.functionRVAs {
		name, named := table.names[uint32(i)]
		if !named {
			name = fmt.Sprintf("ordinal_%d", i)
		}
		exports = append(exports, ExportInfo{
			Name:       name,
			Address:    uint64(rva),
			Ordinal:    uint16(i),
			HasOrdinal: true,
		})
	}
	return exports
}

// peExportTable is the decoded export directory: one RVA per export slot
// plus the slot-index-to-name mapping from the name table.
type peExportTable struct {
	functionRVAs []uint32
	names        map[uint32]string
}

// readPEExportTable decodes IMAGE_DIRECTORY_ENTRY_EXPORT directly from the
// buffer. debug/pe stops at the data directory, so this reader fills the
// gap; every access is bounds-checked and any malformed field degrades to
// "no export table" rather than an error or panic.
func readPEExportTable(f *pe.File, data []byte) (*peExportTable, bool) {
	var dirs []pe.DataDirectory
	switch hdr := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dirs = hdr.DataDirectory[:]
	case *pe.OptionalHeader64:
		dirs = hdr.DataDirectory[:]
	default:
		return nil, false
	}
	if len(dirs) <= pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
		return nil, false
	}
	dir := dirs[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return nil, false
	}

	const exportDirSize = 40
	base, ok := peRVAToOffset(f, dir.VirtualAddress)
	if !ok || base+exportDirSize > uint64(len(data)) {
		return nil, false
	}

	// IMAGE_EXPORT_DIRECTORY fields used here, in file order:
	// +20 NumberOfFunctions, +24 NumberOfNames,
	// +28 AddressOfFunctions, +32 AddressOfNames, +36 AddressOfNameOrdinals.
	numFunctions := peReadU32(data, base+20)
	numNames := peReadU32(data, base+24)
	funcsRVA := peReadU32(data, base+28)
	namesRVA := peReadU32(data, base+32)
	ordinalsRVA := peReadU32(data, base+36)

	if numFunctions > maxPEExportEntries {
		numFunctions = maxPEExportEntries
	}
	if numNames > maxPEExportEntries {
		numNames = maxPEExportEntries
	}

	funcsOff, ok := peRVAToOffset(f, funcsRVA)
	if !ok {
		return nil, false
	}
	table := &peExportTable{names: make(map[uint32]string, numNames)}
	for i := uint32(0); i < numFunctions; i++ {
		off := funcsOff + uint64(i)*4
		if off+4 > uint64(len(data)) {
			break
		}
		table.functionRVAs = append(table.functionRVAs, peReadU32(data, off))
	}

	namesOff, namesOK := peRVAToOffset(f, namesRVA)
	ordinalsOff, ordinalsOK := peRVAToOffset(f, ordinalsRVA)
	if namesOK && ordinalsOK {
		for i := uint32(0); i < numNames; i++ {
			nameRVAOff := namesOff + uint64(i)*4
			ordinalOff := ordinalsOff + uint64(i)*2
			if nameRVAOff+4 > uint64(len(data)) || ordinalOff+2 > uint64(len(data)) {
				break
			}
			nameOff, ok := peRVAToOffset(f, peReadU32(data, nameRVAOff))
			if !ok {
				continue
			}
			name := peReadCString(data, nameOff)
			if name == "" {
				continue
			}
			table.names[uint32(peReadU16(data, ordinalOff))] = name
		}
	}

	return table, true
}

// peRVAToOffset maps a relative virtual address to a file offset through the
// section table.
func peRVAToOffset(f *pe.File, rva uint32) (uint64, bool) {
	for _, sec := range f.Sections {
		size := sec.VirtualSize
		if size == 0 {
			size = sec.Size
		}
		if rva >= sec.VirtualAddress && rva < sec.VirtualAddress+size {
			return uint64(sec.Offset) + uint64(rva-sec.VirtualAddress), true
		}
	}
	return 0, false
}

func peReadU16(data []byte, off uint64) uint16 {
	if off+2 > uint64(len(data)) {
		return 0
	}
	return uint16(data[off]) | uint16(data[off+1])<<8
}

func peReadU32(data []byte, off uint64) uint32 {
	if off+4 > uint64(len(data)) {
		return 0
	}
	return uint32(data[off]) | uint32(data[off+1])<<8 |
		uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}

func peReadCString(data []byte, off uint64) string {
	if off >= uint64(len(data)) {
		return ""
	}
	end := off
	for end < uint64(len(data)) && data[end] != 0 {
		end++
	}
	return string(data[off:end])
}
