// Package container analyzes native executable container files (ELF, PE and
// Mach-O, including universal/fat archives) and normalizes them into a single
// format-neutral model.
//
// Given a raw byte buffer, the package identifies the container format,
// enumerates its sections with a shared semantic classification and a
// string-likelihood weight, and extracts the symbol tables into normalized
// import/export lists. The result is a ContainerInfo value consumed by the
// downstream string extraction and ranking stages.
//
// # Usage
//
//	format := container.DetectFormat(data)
//	analyzer, err := container.NewAnalyzer(format)
//	if err != nil {
//	    return err // not an ELF, PE or Mach-O buffer
//	}
//	info, err := analyzer.Parse(data)
//
// All analyzers are stateless; a single instance may be shared across
// concurrent Parse calls on disjoint buffers. Structural decoding is
// delegated to the standard library debug/elf, debug/pe and debug/macho
// packages; this package only classifies and recombines what those decoders
// report, and it never panics on malformed or truncated input.
package container
