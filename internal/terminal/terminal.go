// Package terminal decides whether report output should be colorized,
// combining the --color flag with terminal detection and the conventional
// color environment variables.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode is the user-facing --color setting.
type ColorMode int

const (
	// ColorAuto enables color only when writing to a terminal.
	ColorAuto ColorMode = iota

	// ColorAlways enables color unconditionally.
	ColorAlways

	// ColorNever disables color unconditionally.
	ColorNever
)

// ErrInvalidColorMode is returned for an unrecognized --color value.
var ErrInvalidColorMode = errors.New("invalid color mode")

// ParseColorMode parses the --color flag value.
func ParseColorMode(value string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("%w: %q (want auto, always or never)", ErrInvalidColorMode, value)
	}
}

// FdWriter is implemented by writers backed by a file descriptor, such as
// *os.File.
type FdWriter interface {
	Fd() uintptr
}

// ShouldColorize reports whether output to w should use ANSI colors.
//
// The flag wins over the environment: always and never are final. In auto
// mode CLICOLOR_FORCE forces color on, NO_COLOR (set to anything, even
// empty) forces it off, and otherwise color tracks whether w is a terminal.
func ShouldColorize(mode ColorMode, w any) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && isTruthy(force) {
		return true
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	fdw, ok := w.(FdWriter)
	return ok && term.IsTerminal(int(fdw.Fd()))
}

// isTruthy treats "0", "false" and "no" as false, everything else as true.
func isTruthy(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return lower != "" && lower != "0" && lower != "false" && lower != "no"
}
