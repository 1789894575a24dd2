// Package safeio provides bounded file reading for untrusted input.
// Analyzed binaries come from arbitrary sources, so reads are capped and
// restricted to regular files.
package safeio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultMaxFileSize caps reads at 1 GiB.
const DefaultMaxFileSize int64 = 1 << 30

var (
	// ErrFileTooLarge indicates that the file exceeds the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotRegularFile indicates a device, pipe, directory or other
	// non-regular file.
	ErrNotRegularFile = errors.New("not a regular file")
)

// ReadFileCapped reads a regular file of at most maxSize bytes. A
// non-positive maxSize means DefaultMaxFileSize. The size is checked both
// before and after reading so a file growing mid-read cannot bypass the cap.
func ReadFileCapped(path string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing file", "path", path, "error", closeErr)
		}
	}()

	// Stat through the descriptor, not the path, so the check and the read
	// see the same file.
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if fileInfo.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, fileInfo.Size())
	}

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, path)
	}

	return content, nil
}
