package container

import "fmt"

// BinaryFormat identifies the container format of a binary buffer.
type BinaryFormat int

const (
	// FormatUnknown indicates the buffer is not a recognized container format.
	FormatUnknown BinaryFormat = iota

	// FormatELF indicates an ELF (Executable and Linkable Format) binary.
	FormatELF

	// FormatPE indicates a PE/COFF (Portable Executable) binary.
	FormatPE

	// FormatMachO indicates a Mach-O binary, single-architecture or universal.
	FormatMachO
)

// String returns a string representation of the binary format.
func (f BinaryFormat) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatPE:
		return "pe"
	case FormatMachO:
		return "macho"
	case FormatUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// SectionType is the semantic category of a section, shared across all
// supported formats. Every section produced by an analyzer carries exactly
// one SectionType; classification is total, so no section is ever left
// unclassified.
type SectionType int

const (
	// SectionOther is the default for sections no other category matches.
	SectionOther SectionType = iota

	// SectionStringData marks dedicated literal/constant-string regions
	// (.rodata, .rdata, __cstring) most likely to contain meaningful text.
	SectionStringData

	// SectionReadOnlyData marks read-only data regions (.data.rel.ro,
	// __DATA_CONST).
	SectionReadOnlyData

	// SectionWritableData marks writable data regions (.data, .bss, __DATA).
	SectionWritableData

	// SectionCode marks executable instruction regions.
	SectionCode

	// SectionDebug marks debug information and symbol-table housekeeping
	// regions (.debug_*, __DWARF, .symtab).
	SectionDebug

	// SectionResources marks the PE resource segment (.rsrc). Unused by the
	// other formats.
	SectionResources
)

// String returns a string representation of the section type.
func (t SectionType) String() string {
	switch t {
	case SectionStringData:
		return "string_data"
	case SectionReadOnlyData:
		return "readonly_data"
	case SectionWritableData:
		return "writable_data"
	case SectionCode:
		return "code"
	case SectionDebug:
		return "debug"
	case SectionResources:
		return "resources"
	case SectionOther:
		return "other"
	default:
		return fmt.Sprintf("section_type(%d)", int(t))
	}
}

// SectionInfo describes one parsed section or segment. Analyzers never emit
// zero-length sections, and Weight is always positive.
type SectionInfo struct {
	// Name is the format-appropriate display name. For Mach-O this is the
	// "segment,section" pair (e.g. "__TEXT,__cstring").
	Name string

	// Offset is the file byte offset of the section contents.
	Offset uint64

	// Size is the byte length of the section.
	Size uint64

	// RVA is the virtual address of the section. All three supported
	// formats are memory-mapped, so this is always populated.
	RVA uint64

	// Type is the semantic classification of the section.
	Type SectionType

	// Executable reports whether the section holds executable instructions.
	Executable bool

	// Writable reports whether the section is mapped writable.
	Writable bool

	// Weight estimates how likely the section is to contain human-meaningful
	// text. Higher is more likely; the downstream string-ranking stage scans
	// sections in descending weight order.
	Weight float64
}

// ImportInfo describes one undefined, externally-resolved symbol.
type ImportInfo struct {
	// Name is the imported symbol name.
	Name string

	// Library is the owning module name when the format exposes it. It is
	// populated for PE via its import-table linkage and left empty for ELF
	// and Mach-O, which do not reliably associate an undefined symbol with a
	// specific dependency without relocation analysis.
	Library string

	// Address is the symbol value or RVA when it carries a nonzero one;
	// zero means absent.
	Address uint64
}

// ExportInfo describes one externally visible defined symbol.
type ExportInfo struct {
	// Name is the exported symbol name. PE exports lacking a name are
	// assigned the synthetic form "ordinal_<index>".
	Name string

	// Address is the symbol value or RVA. A zero address is a valid export
	// for PE and Mach-O; the ELF analyzer drops zero-valued symbols as a
	// documented noise filter.
	Address uint64

	// Ordinal is the PE positional export identifier. Valid only when
	// HasOrdinal is true; the other formats never set it.
	Ordinal uint16

	// HasOrdinal reports whether Ordinal is meaningful.
	HasOrdinal bool
}

// ContainerInfo is the aggregate analysis result for one buffer. Sections
// preserve source order; imports and exports are unordered. The value is
// constructed once per Parse call and never mutated afterwards.
//
//nolint:revive // container.ContainerInfo mirrors the established result name
type ContainerInfo struct {
	// Format is the detected container format.
	Format BinaryFormat

	// Sections lists the parsed sections in source order.
	Sections []SectionInfo

	// Imports lists the undefined, externally-resolved symbols.
	Imports []ImportInfo

	// Exports lists the externally visible defined symbols.
	Exports []ExportInfo
}
