//go:build test

// Package containertesting builds minimal synthetic ELF, PE and Mach-O
// images in memory for analyzer tests. Every builder verifies its output
// against the corresponding debug/* decoder so tests never chase phantom
// encoding bugs.
package containertesting

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// ELFSection describes one section of a synthetic ELF image.
type ELFSection struct {
	Name  string
	Type  uint32 // defaults to SHT_PROGBITS
	Flags uint64
	Addr  uint64
	Data  []byte
	Link  string // name of the linked section (e.g. .dynstr for .dynsym)
}

// ELFSymbol describes one Elf64_Sym entry for a synthetic symbol table.
type ELFSymbol struct {
	Name  string
	Bind  elf.SymBind
	Type  elf.SymType
	Shndx uint16 // elf.SHN_UNDEF for undefined symbols
	Value uint64
}

const (
	elfEhdrSize = 64
	elfShdrSize = 64
	elfSymSize  = 24

	shtProgbits = 1
	shtSymtab   = 2
	shtStrtab   = 3
	shtDynsym   = 11
)

// BuildELF assembles a little-endian x86-64 ELF executable containing the
// given sections and verifies it parses with debug/elf.
func BuildELF(t *testing.T, sections []ELFSection) []byte {
	t.Helper()
	return buildELF(t, sections)
}

// BuildELFWithSymbols assembles an ELF image carrying a .dynsym/.dynstr pair
// and a .symtab/.strtab pair built from the given symbol lists.
func BuildELFWithSymbols(t *testing.T, sections []ELFSection, dynamic, static []ELFSymbol) []byte {
	t.Helper()

	if len(dynamic) > 0 {
		strtab, symtab := encodeELFSymtab(dynamic)
		sections = append(sections,
			ELFSection{Name: ".dynstr", Type: shtStrtab, Data: strtab},
			ELFSection{Name: ".dynsym", Type: shtDynsym, Data: symtab, Link: ".dynstr"},
		)
	}
	if len(static) > 0 {
		strtab, symtab := encodeELFSymtab(static)
		sections = append(sections,
			ELFSection{Name: ".strtab", Type: shtStrtab, Data: strtab},
			ELFSection{Name: ".symtab", Type: shtSymtab, Data: symtab, Link: ".strtab"},
		)
	}
	return buildELF(t, sections)
}

// encodeELFSymtab encodes symbols as Elf64_Sym records preceded by the
// mandatory all-zero entry, returning the string table and symbol table.
func encodeELFSymtab(symbols []ELFSymbol) (strtab, symtab []byte) {
	strtab = []byte{0}
	symtab = make([]byte, elfSymSize) // null symbol

	for _, sym := range symbols {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, sym.Name...)
		strtab = append(strtab, 0)

		entry := make([]byte, elfSymSize)
		binary.LittleEndian.PutUint32(entry[0:], nameOff)
		entry[4] = byte(sym.Bind)<<4 | byte(sym.Type)&0xf
		binary.LittleEndian.PutUint16(entry[6:], sym.Shndx)
		binary.LittleEndian.PutUint64(entry[8:], sym.Value)
		symtab = append(symtab, entry...)
	}
	return strtab, symtab
}

func buildELF(t *testing.T, sections []ELFSection) []byte {
	t.Helper()

	// Section name string table, with its own name last.
	shstrtab := []byte{0}
	nameOff := make([]uint32, len(sections))
	for i, sec := range sections {
		nameOff[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, sec.Name...)
		shstrtab = append(shstrtab, 0)
	}
	shstrtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".shstrtab"...)
	shstrtab = append(shstrtab, 0)

	// Layout: ehdr, section data, shstrtab data, section header table.
	offset := uint64(elfEhdrSize)
	dataOff := make([]uint64, len(sections))
	for i, sec := range sections {
		dataOff[i] = offset
		offset += uint64(len(sec.Data))
	}
	shstrtabOff := offset
	offset += uint64(len(shstrtab))
	shoff := (offset + 7) &^ 7

	shnum := len(sections) + 2 // null section + user sections + .shstrtab
	shstrndx := len(sections) + 1

	sectionIndex := func(name string) uint32 {
		for i, sec := range sections {
			if sec.Name == name {
				return uint32(i + 1)
			}
		}
		return 0
	}

	var buf bytes.Buffer
	ehdr := make([]byte, elfEhdrSize)
	copy(ehdr, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0})
	binary.LittleEndian.PutUint16(ehdr[16:], 2)    // ET_EXEC
	binary.LittleEndian.PutUint16(ehdr[18:], 0x3e) // EM_X86_64
	binary.LittleEndian.PutUint32(ehdr[20:], 1)
	binary.LittleEndian.PutUint64(ehdr[40:], shoff)
	binary.LittleEndian.PutUint16(ehdr[52:], elfEhdrSize)
	binary.LittleEndian.PutUint16(ehdr[58:], elfShdrSize)
	binary.LittleEndian.PutUint16(ehdr[60:], uint16(shnum))
	binary.LittleEndian.PutUint16(ehdr[62:], uint16(shstrndx))
	buf.Write(ehdr)

	for _, sec := range sections {
		buf.Write(sec.Data)
	}
	buf.Write(shstrtab)
	for uint64(buf.Len()) < shoff {
		buf.WriteByte(0)
	}

	writeShdr := func(name uint32, typ uint32, flags, addr, off, size uint64, link uint32, entsize uint64) {
		shdr := make([]byte, elfShdrSize)
		binary.LittleEndian.PutUint32(shdr[0:], name)
		binary.LittleEndian.PutUint32(shdr[4:], typ)
		binary.LittleEndian.PutUint64(shdr[8:], flags)
		binary.LittleEndian.PutUint64(shdr[16:], addr)
		binary.LittleEndian.PutUint64(shdr[24:], off)
		binary.LittleEndian.PutUint64(shdr[32:], size)
		binary.LittleEndian.PutUint32(shdr[40:], link)
		binary.LittleEndian.PutUint64(shdr[48:], 1) // addralign
		binary.LittleEndian.PutUint64(shdr[56:], entsize)
		buf.Write(shdr)
	}

	writeShdr(0, 0, 0, 0, 0, 0, 0, 0) // null section
	for i, sec := range sections {
		typ := sec.Type
		if typ == 0 {
			typ = shtProgbits
		}
		var entsize uint64
		if typ == shtSymtab || typ == shtDynsym {
			entsize = elfSymSize
		}
		writeShdr(nameOff[i], typ, sec.Flags, sec.Addr, dataOff[i],
			uint64(len(sec.Data)), sectionIndex(sec.Link), entsize)
	}
	writeShdr(shstrtabNameOff, shtStrtab, 0, 0, shstrtabOff, uint64(len(shstrtab)), 0, 0)

	data := buf.Bytes()
	_, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err, "synthetic ELF image must parse")
	return data
}

// PESection describes one section of a synthetic PE image.
type PESection struct {
	Name            string
	VirtualAddress  uint32
	Characteristics uint32
	Data            []byte
}

const (
	peDOSStubSize    = 64
	peSectionHdrSize = 40
)

// BuildPE assembles a minimal PE32+ image with the given sections and
// verifies it parses with debug/pe. Section raw data is laid out
// sequentially after the headers.
func BuildPE(t *testing.T, sections []PESection) []byte {
	t.Helper()

	headerSize := peDOSStubSize + 4 + 20 + 240 + peSectionHdrSize*len(sections)

	var buf bytes.Buffer
	dos := make([]byte, peDOSStubSize)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], peDOSStubSize)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
		NumberOfSections:     uint16(len(sections)),
		SizeOfOptionalHeader: 240,
		Characteristics:      0x0022, // executable image, large address aware
	}))

	opt := pe.OptionalHeader64{
		Magic:               0x20b,
		SectionAlignment:    0x1000,
		FileAlignment:       0x200,
		SizeOfHeaders:       uint32(headerSize),
		NumberOfRvaAndSizes: 16,
	}
	for _, sec := range sections {
		end := sec.VirtualAddress + uint32(len(sec.Data))
		if end > opt.SizeOfImage {
			opt.SizeOfImage = end
		}
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, opt))

	rawOff := uint32(headerSize)
	for _, sec := range sections {
		var hdr pe.SectionHeader32
		copy(hdr.Name[:], sec.Name)
		hdr.VirtualSize = uint32(len(sec.Data))
		hdr.VirtualAddress = sec.VirtualAddress
		hdr.SizeOfRawData = uint32(len(sec.Data))
		hdr.PointerToRawData = rawOff
		hdr.Characteristics = sec.Characteristics
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
		rawOff += uint32(len(sec.Data))
	}
	for _, sec := range sections {
		buf.Write(sec.Data)
	}

	data := buf.Bytes()
	_, err := pe.NewFile(bytes.NewReader(data))
	require.NoError(t, err, "synthetic PE image must parse")
	return data
}

// PEImportBlob encodes an import directory resolving the given functions
// from one DLL, self-contained within a section mapped at sectionRVA.
func PEImportBlob(sectionRVA uint32, dll string, funcs []string) []byte {
	const descSize = 20
	thunksOff := uint32(2 * descSize) // descriptor + null terminator
	hintsOff := thunksOff + uint32(len(funcs)+1)*8

	hintRVAs := make([]uint32, len(funcs))
	var hints bytes.Buffer
	for i, fn := range funcs {
		hintRVAs[i] = sectionRVA + hintsOff + uint32(hints.Len())
		hints.Write([]byte{0, 0}) // hint
		hints.WriteString(fn)
		hints.WriteByte(0)
	}
	dllNameRVA := sectionRVA + hintsOff + uint32(hints.Len())

	var blob bytes.Buffer
	desc := make([]byte, descSize)
	binary.LittleEndian.PutUint32(desc[0:], sectionRVA+thunksOff) // OriginalFirstThunk
	binary.LittleEndian.PutUint32(desc[12:], dllNameRVA)          // Name
	binary.LittleEndian.PutUint32(desc[16:], sectionRVA+thunksOff)
	blob.Write(desc)
	blob.Write(make([]byte, descSize)) // terminator

	thunk := make([]byte, 8)
	for _, rva := range hintRVAs {
		binary.LittleEndian.PutUint64(thunk, uint64(rva))
		blob.Write(thunk)
	}
	blob.Write(make([]byte, 8)) // null thunk
	blob.Write(hints.Bytes())
	blob.WriteString(dll)
	blob.WriteByte(0)
	return blob.Bytes()
}

// PEExport describes one export slot of a synthetic export directory.
type PEExport struct {
	Name    string // empty for an ordinal-only export
	Address uint32
}

// PEExportBlob encodes an export directory for a section mapped at
// sectionRVA. Slot order matches the input order.
func PEExportBlob(sectionRVA uint32, exports []PEExport) []byte {
	var named []int
	for i, exp := range exports {
		if exp.Name != "" {
			named = append(named, i)
		}
	}

	const dirSize = 40
	funcsOff := uint32(dirSize)
	namesOff := funcsOff + uint32(len(exports))*4
	ordinalsOff := namesOff + uint32(len(named))*4
	stringsOff := ordinalsOff + uint32(len(named))*2

	var strs bytes.Buffer
	nameRVA := make(map[int]uint32)
	for _, i := range named {
		nameRVA[i] = sectionRVA + stringsOff + uint32(strs.Len())
		strs.WriteString(exports[i].Name)
		strs.WriteByte(0)
	}

	dir := make([]byte, dirSize)
	binary.LittleEndian.PutUint32(dir[20:], uint32(len(exports))) // NumberOfFunctions
	binary.LittleEndian.PutUint32(dir[24:], uint32(len(named)))   // NumberOfNames
	binary.LittleEndian.PutUint32(dir[28:], sectionRVA+funcsOff)
	binary.LittleEndian.PutUint32(dir[32:], sectionRVA+namesOff)
	binary.LittleEndian.PutUint32(dir[36:], sectionRVA+ordinalsOff)

	var blob bytes.Buffer
	blob.Write(dir)
	word := make([]byte, 4)
	for _, exp := range exports {
		binary.LittleEndian.PutUint32(word, exp.Address)
		blob.Write(word)
	}
	// Name pointer table and ordinal table cover named slots only; the
	// ordinal here is the slot index into the function table.
	for _, i := range named {
		binary.LittleEndian.PutUint32(word, nameRVA[i])
		blob.Write(word)
	}
	half := make([]byte, 2)
	for _, i := range named {
		binary.LittleEndian.PutUint16(half, uint16(i))
		blob.Write(half)
	}
	blob.Write(strs.Bytes())
	return blob.Bytes()
}

// SetPEDataDirectory patches entry index of the optional header's data
// directory in an image produced by BuildPE.
func SetPEDataDirectory(t *testing.T, image []byte, index int, rva, size uint32) {
	t.Helper()

	peOff := binary.LittleEndian.Uint32(image[0x3c:])
	// signature(4) + file header(20) + fixed optional header fields(112)
	dirOff := peOff + 4 + 20 + 112 + uint32(index)*8
	require.Less(t, int(dirOff+8), len(image))
	binary.LittleEndian.PutUint32(image[dirOff:], rva)
	binary.LittleEndian.PutUint32(image[dirOff+4:], size)

	_, err := pe.NewFile(bytes.NewReader(image))
	require.NoError(t, err, "patched PE image must still parse")
}

// MachOSection describes one section of a synthetic Mach-O image.
type MachOSection struct {
	Seg  string
	Sect string
	Addr uint64
	Data []byte
}

// MachOSymbol describes one nlist_64 entry.
type MachOSymbol struct {
	Name  string
	Sect  uint8 // 0 = NO_SECT (undefined)
	Value uint64
}

const (
	machoMagic64      = 0xfeedfacf
	machoCPUAMD64     = 0x01000007
	machoFileTypeExec = 2
	machoHeaderSize   = 32
	machoSegment64    = 0x19
	machoSymtabCmd    = 0x2
	machoSection64Len = 80
	machoNlist64Len   = 16
)

// BuildMachO assembles a minimal 64-bit little-endian Mach-O executable
// with one segment command covering all sections plus an optional symbol
// table, verified against debug/macho.
func BuildMachO(t *testing.T, sections []MachOSection, symbols []MachOSymbol) []byte {
	t.Helper()

	segCmdSize := 72 + machoSection64Len*len(sections)
	cmdsSize := segCmdSize
	ncmds := 1
	if len(symbols) > 0 {
		cmdsSize += 24
		ncmds++
	}

	dataStart := uint32(machoHeaderSize + cmdsSize)
	dataOff := make([]uint32, len(sections))
	off := dataStart
	for i, sec := range sections {
		dataOff[i] = off
		off += uint32(len(sec.Data))
	}

	strtab := []byte{0}
	var symtab bytes.Buffer
	for _, sym := range symbols {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, sym.Name...)
		strtab = append(strtab, 0)

		entry := make([]byte, machoNlist64Len)
		binary.LittleEndian.PutUint32(entry[0:], nameOff)
		entry[4] = 0x01 // N_EXT
		if sym.Sect != 0 {
			entry[4] |= 0x0e // N_SECT
		}
		entry[5] = sym.Sect
		binary.LittleEndian.PutUint64(entry[8:], sym.Value)
		symtab.Write(entry)
	}
	symOff := off
	strOff := symOff + uint32(symtab.Len())

	var buf bytes.Buffer
	hdr := make([]byte, machoHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:], machoMagic64)
	binary.LittleEndian.PutUint32(hdr[4:], machoCPUAMD64)
	binary.LittleEndian.PutUint32(hdr[8:], 3)
	binary.LittleEndian.PutUint32(hdr[12:], machoFileTypeExec)
	binary.LittleEndian.PutUint32(hdr[16:], uint32(ncmds))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(cmdsSize))
	buf.Write(hdr)

	seg := make([]byte, 72)
	binary.LittleEndian.PutUint32(seg[0:], machoSegment64)
	binary.LittleEndian.PutUint32(seg[4:], uint32(segCmdSize))
	copy(seg[8:24], "__FILE")
	binary.LittleEndian.PutUint32(seg[64:], uint32(len(sections)))
	buf.Write(seg)

	for i, sec := range sections {
		entry := make([]byte, machoSection64Len)
		copy(entry[0:16], sec.Sect)
		copy(entry[16:32], sec.Seg)
		binary.LittleEndian.PutUint64(entry[32:], sec.Addr)
		binary.LittleEndian.PutUint64(entry[40:], uint64(len(sec.Data)))
		binary.LittleEndian.PutUint32(entry[48:], dataOff[i])
		buf.Write(entry)
	}

	if len(symbols) > 0 {
		cmd := make([]byte, 24)
		binary.LittleEndian.PutUint32(cmd[0:], machoSymtabCmd)
		binary.LittleEndian.PutUint32(cmd[4:], 24)
		binary.LittleEndian.PutUint32(cmd[8:], symOff)
		binary.LittleEndian.PutUint32(cmd[12:], uint32(len(symbols)))
		binary.LittleEndian.PutUint32(cmd[16:], strOff)
		binary.LittleEndian.PutUint32(cmd[20:], uint32(len(strtab)))
		buf.Write(cmd)
	}

	for _, sec := range sections {
		buf.Write(sec.Data)
	}
	buf.Write(symtab.Bytes())
	buf.Write(strtab)

	data := buf.Bytes()
	_, err := macho.NewFile(bytes.NewReader(data))
	require.NoError(t, err, "synthetic Mach-O image must parse")
	return data
}

// BuildFatMachO wraps a thin Mach-O image into a universal archive with a
// single architecture slice. declaredSize overrides the slice's declared
// byte length when nonzero, letting tests declare an extent beyond the
// actual buffer.
func BuildFatMachO(t *testing.T, thin []byte, declaredSize uint32) []byte {
	t.Helper()

	size := uint32(len(thin))
	if declaredSize != 0 {
		size = declaredSize
	}
	const sliceOffset = 4096

	var buf bytes.Buffer
	hdr := make([]byte, 8)
	binary.BigEndian.PutUint32(hdr[0:], 0xcafebabe)
	binary.BigEndian.PutUint32(hdr[4:], 1)
	buf.Write(hdr)

	arch := make([]byte, 20)
	binary.BigEndian.PutUint32(arch[0:], machoCPUAMD64)
	binary.BigEndian.PutUint32(arch[4:], 3)
	binary.BigEndian.PutUint32(arch[8:], sliceOffset)
	binary.BigEndian.PutUint32(arch[12:], size)
	binary.BigEndian.PutUint32(arch[16:], 12)
	buf.Write(arch)

	buf.Write(make([]byte, sliceOffset-buf.Len()))
	buf.Write(thin)

	data := buf.Bytes()
	_, err := macho.NewFatFile(bytes.NewReader(data))
	require.NoError(t, err, "synthetic fat Mach-O image must parse")
	return data
}
