package container

// Analyzer is the common two-operation contract implemented by every
// per-format analyzer. Implementations are stateless: Detect and Parse are
// pure functions of the input buffer, so one instance may serve any number
// of concurrent calls on disjoint buffers. Callers own the buffer and must
// not mutate it while a call referencing it is in flight.
type Analyzer interface {
	// Detect reports whether the buffer decodes as this analyzer's format.
	// It is side-effect-free and never fails; malformed input yields false.
	Detect(data []byte) bool

	// Parse performs the full extraction. It returns a *ParseError when the
	// buffer does not decode as this analyzer's format or violates a
	// format-specific structural invariant. It never panics on malformed or
	// truncated input.
	Parse(data []byte) (*ContainerInfo, error)
}

// analyzers binds each concrete format to its analyzer instance. Analyzers
// are stateless, so the package shares one instance per format.
var analyzers = map[BinaryFormat]Analyzer{
	FormatELF:   NewELFAnalyzer(),
	FormatPE:    NewPEAnalyzer(),
	FormatMachO: NewMachOAnalyzer(),
}

// DetectFormat sniffs the buffer and returns its container format. Any
// decode failure or unrecognized magic yields FormatUnknown; the caller
// never needs to know the format up front.
func DetectFormat(data []byte) BinaryFormat {
	for _, format := range []BinaryFormat{FormatELF, FormatPE, FormatMachO} {
		if analyzers[format].Detect(data) {
			return format
		}
	}
	return FormatUnknown
}

// NewAnalyzer returns the analyzer bound to a concrete format. It fails
// with ErrUnsupportedFormat for FormatUnknown or any unmapped value.
func NewAnalyzer(format BinaryFormat) (Analyzer, error) {
	analyzer, ok := analyzers[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return analyzer, nil
}

// Analyze is the convenience entry point combining detection, dispatch and
// parsing for a single buffer.
func Analyze(data []byte) (*ContainerInfo, error) {
	analyzer, err := NewAnalyzer(DetectFormat(data))
	if err != nil {
		return nil, err
	}
	return analyzer.Parse(data)
}
