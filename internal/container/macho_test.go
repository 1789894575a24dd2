//go:build test

package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmori/go-binstrings/internal/container/containertesting"
)

func TestClassifyMachOSection(t *testing.T) {
	tests := []struct {
		segment string
		section string
		want    SectionType
	}{
		{segment: "__TEXT", section: "__cstring", want: SectionStringData},
		{segment: "__TEXT", section: "__const", want: SectionStringData},
		{segment: "__DATA", section: "__cfstring", want: SectionStringData},
		{segment: "__DATA_CONST", section: "__cfstring", want: SectionStringData},
		{segment: "__DATA_CONST", section: "__const", want: SectionReadOnlyData},
		{segment: "__DATA_CONST", section: "__got", want: SectionReadOnlyData},
		{segment: "__DATA", section: "__data", want: SectionWritableData},
		{segment: "__DATA", section: "__bss", want: SectionWritableData},
		{segment: "__TEXT", section: "__text", want: SectionCode},
		{segment: "__TEXT", section: "__stubs", want: SectionCode},
		{segment: "__TEXT", section: "__stub_helper", want: SectionCode},
		{segment: "__DWARF", section: "__debug_info", want: SectionDebug},
		{segment: "__TEXT", section: "__debug_line", want: SectionDebug},
		{segment: "__LINKEDIT", section: "__unknown", want: SectionOther},
		{segment: "__TEXT", section: "__unwind_info", want: SectionOther},
	}

	for _, tt := range tests {
		t.Run(tt.segment+","+tt.section, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyMachOSection(tt.segment, tt.section))
		})
	}
}

func TestMachOSectionWeightOrdering(t *testing.T) {
	cstring := machoSectionWeight(SectionStringData, "__cstring")
	constData := machoSectionWeight(SectionReadOnlyData, "__const")
	data := machoSectionWeight(SectionWritableData, "__data")
	debug := machoSectionWeight(SectionDebug, "__debug_info")
	code := machoSectionWeight(SectionCode, "__text")

	assert.InDelta(t, 10.0, cstring, 0)
	assert.Greater(t, cstring, constData)
	assert.Greater(t, constData, data)
	assert.Greater(t, data, debug)
	assert.GreaterOrEqual(t, debug, code)
}

func TestMachOAnalyzerParseSections(t *testing.T) {
	data := containertesting.BuildMachO(t, []containertesting.MachOSection{
		{Seg: "__TEXT", Sect: "__text", Addr: 0x100001000, Data: make([]byte, 32)},
		{Seg: "__TEXT", Sect: "__cstring", Addr: 0x100002000, Data: []byte("hello\x00world\x00....")},
		{Seg: "__DATA", Sect: "__data", Addr: 0x100003000, Data: make([]byte, 8)},
	}, nil)

	info, err := NewMachOAnalyzer().Parse(data)
	require.NoError(t, err)
	assert.Equal(t, FormatMachO, info.Format)
	require.Len(t, info.Sections, 3)

	text := info.Sections[0]
	assert.Equal(t, "__TEXT,__text", text.Name)
	assert.Equal(t, SectionCode, text.Type)
	assert.True(t, text.Executable)
	assert.False(t, text.Writable)
	assert.Equal(t, uint64(0x100001000), text.RVA)

	cstring := info.Sections[1]
	assert.Equal(t, "__TEXT,__cstring", cstring.Name)
	assert.Equal(t, SectionStringData, cstring.Type)
	assert.InDelta(t, 10.0, cstring.Weight, 0)
	assert.False(t, cstring.Executable)

	dataSec := info.Sections[2]
	assert.Equal(t, "__DATA,__data", dataSec.Name)
	assert.Equal(t, SectionWritableData, dataSec.Type)
	assert.False(t, dataSec.Executable)
	assert.True(t, dataSec.Writable)
}

func TestMachOExecutableOnlyForTextText(t *testing.T) {
	data := containertesting.BuildMachO(t, []containertesting.MachOSection{
		{Seg: "__TEXT", Sect: "__text", Addr: 0x1000, Data: make([]byte, 4)},
		{Seg: "__TEXT", Sect: "__stubs", Addr: 0x2000, Data: make([]byte, 4)},
		{Seg: "__DATA_DIRTY", Sect: "__data", Addr: 0x3000, Data: make([]byte, 4)},
	}, nil)

	info, err := NewMachOAnalyzer().Parse(data)
	require.NoError(t, err)
	require.Len(t, info.Sections, 3)

	for _, sec := range info.Sections {
		// Executable is reserved for the exact (__TEXT, __text) pair, even
		// though __stubs also classifies as code.
		assert.Equal(t, sec.Name == "__TEXT,__text", sec.Executable, sec.Name)
	}
	assert.True(t, info.Sections[2].Writable, "__DATA_DIRTY segment is writable")
}

func TestMachOSymbolExtraction(t *testing.T) {
	data := containertesting.BuildMachO(t, []containertesting.MachOSection{
		{Seg: "__TEXT", Sect: "__text", Addr: 0x1000, Data: make([]byte, 16)},
	}, []containertesting.MachOSymbol{
		{Name: "_printf", Sect: 0, Value: 0},        // undefined: import
		{Name: "_main", Sect: 1, Value: 0x1000},     // defined: export
		{Name: "_", Sect: 1, Value: 0x2000},         // linker noise: suppressed
		{Name: "_partial", Sect: 1, Value: 0},       // defined but zero value: neither
		{Name: "_mh_header", Sect: 0, Value: 0x100}, // no section but nonzero value: neither
	})

	info, err := NewMachOAnalyzer().Parse(data)
	require.NoError(t, err)

	require.Len(t, info.Imports, 1)
	assert.Equal(t, "_printf", info.Imports[0].Name)
	assert.Empty(t, info.Imports[0].Library, "Mach-O does not attribute imports to libraries")
	assert.Zero(t, info.Imports[0].Address)

	require.Len(t, info.Exports, 1)
	assert.Equal(t, "_main", info.Exports[0].Name)
	assert.Equal(t, uint64(0x1000), info.Exports[0].Address)
	assert.False(t, info.Exports[0].HasOrdinal)
}

func TestMachOFatBinarySingleSlice(t *testing.T) {
	thin := containertesting.BuildMachO(t, []containertesting.MachOSection{
		{Seg: "__TEXT", Sect: "__cstring", Addr: 0x2000, Data: []byte("fat slice\x00......")},
	}, nil)
	fat := containertesting.BuildFatMachO(t, thin, 0)

	info, err := NewMachOAnalyzer().Parse(fat)
	require.NoError(t, err)
	assert.Equal(t, FormatMachO, info.Format)
	require.Len(t, info.Sections, 1)
	assert.Equal(t, "__TEXT,__cstring", info.Sections[0].Name)
	assert.Equal(t, SectionStringData, info.Sections[0].Type)
}

func TestMachOFatBinarySliceOutOfBounds(t *testing.T) {
	thin := containertesting.BuildMachO(t, []containertesting.MachOSection{
		{Seg: "__TEXT", Sect: "__text", Addr: 0x1000, Data: make([]byte, 8)},
	}, nil)
	// The slice declares an extent far beyond the actual buffer.
	fat := containertesting.BuildFatMachO(t, thin, 1<<20)

	_, err := NewMachOAnalyzer().Parse(fat)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, err, ErrArchOutOfBounds)
}

func TestMachOAnalyzerMalformedInput(t *testing.T) {
	var parseErr *ParseError
	_, err := NewMachOAnalyzer().Parse([]byte("NOT_MACHO_DATA"))
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FormatMachO, parseErr.Format)
}
