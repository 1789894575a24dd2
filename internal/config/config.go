// Package config provides functionality for loading and validating the
// analyzer configuration. It supports TOML format and rejects unknown keys
// so typos surface as errors instead of silently falling back to defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/hmori/go-binstrings/internal/extraction"
	"github.com/hmori/go-binstrings/internal/safeio"
)

// Error definitions for the config package
var (
	// ErrInvalidMinLength is returned when min_length is negative.
	ErrInvalidMinLength = errors.New("min_length must not be negative")

	// ErrInvalidMaxFileSize is returned when max_file_size is negative.
	ErrInvalidMaxFileSize = errors.New("max_file_size must not be negative")

	// ErrInvalidOutputMode is returned for an unrecognized output value.
	ErrInvalidOutputMode = errors.New("output must be \"text\" or \"json\"")

	// ErrInvalidEncoding is returned for an unrecognized encodings entry.
	ErrInvalidEncoding = errors.New("unsupported encoding")

	// ErrInvalidTop is returned when top is negative.
	ErrInvalidTop = errors.New("top must not be negative")
)

// Output modes accepted in the output field.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds the analyzer settings loaded from a TOML file.
type Config struct {
	// MinLength is the minimum extracted string length in characters.
	MinLength int `toml:"min_length"`

	// MaxFileSize caps input files in bytes. Zero means the safeio default.
	MaxFileSize int64 `toml:"max_file_size"`

	// Encodings selects the scan passes. Valid entries: "ascii", "utf16le".
	Encodings []string `toml:"encodings"`

	// IncludeCodeSections also scans code and unclassified sections.
	IncludeCodeSections bool `toml:"include_code_sections"`

	// Output selects the report renderer, "text" or "json".
	Output string `toml:"output"`

	// Top limits the report to the N highest-scoring strings. Zero means
	// no limit.
	Top int `toml:"top"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		MinLength:   extraction.DefaultMinLength,
		MaxFileSize: safeio.DefaultMaxFileSize,
		Encodings:   []string{string(extraction.EncodingASCII), string(extraction.EncodingUTF16LE)},
		Output:      OutputText,
		Top:         50,
	}
}

// LoadConfig parses TOML content on top of the defaults and validates the
// result. Unknown keys are an error.
func LoadConfig(content []byte) (*Config, error) {
	cfg := DefaultConfig()

	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and returns the first violation found.
func (c *Config) Validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinLength, c.MinLength)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxFileSize, c.MaxFileSize)
	}
	if c.Top < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTop, c.Top)
	}
	if c.Output != OutputText && c.Output != OutputJSON {
		return fmt.Errorf("%w: got %q", ErrInvalidOutputMode, c.Output)
	}
	for _, enc := range c.Encodings {
		switch extraction.Encoding(enc) {
		case extraction.EncodingASCII, extraction.EncodingUTF16LE:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidEncoding, enc)
		}
	}
	return nil
}

// ScanOptions translates the config into extraction scanner options.
func (c *Config) ScanOptions() extraction.Options {
	utf16 := false
	for _, enc := range c.Encodings {
		if extraction.Encoding(enc) == extraction.EncodingUTF16LE {
			utf16 = true
		}
	}
	return extraction.Options{
		MinLength:           c.MinLength,
		IncludeCodeSections: c.IncludeCodeSections,
		DisableUTF16:        !utf16,
	}
}
