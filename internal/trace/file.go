package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks trace files stored as zstd streams.
const CompressedSuffix = ".zst"

// OpenInput opens a trace for reading. Paths ending in .zst are decompressed
// on the fly. Any failure, including a path that is not a regular file,
// wraps ErrInputNotFound.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrInputNotFound, path)
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: opening zstd stream %s: %w", ErrInputNotFound, path, err)
	}
	return &zstdReadCloser{dec: dec, file: f}, nil
}

type zstdReadCloser struct {
	dec  *zstd.Decoder
	file *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}

// EnsureDistinct fails with ErrOutputWrite when output names the same file
// as input, so that creating the output cannot truncate the input.
// A missing output is always distinct.
func EnsureDistinct(input, output string) error {
	in, err := os.Stat(input)
	if err != nil {
		return nil
	}
	out, err := os.Stat(output)
	if err != nil {
		return nil
	}
	if os.SameFile(in, out) {
		return fmt.Errorf("%w: output %s is the input file", ErrOutputWrite, output)
	}
	return nil
}

// CreateOutput creates (or truncates) a trace for writing. Paths ending in
// .zst are compressed. Any failure wraps ErrOutputWrite.
func CreateOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return f, nil
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: opening zstd stream %s: %w", ErrOutputWrite, path, err)
	}
	return &zstdWriteCloser{enc: enc, file: f}, nil
}

type zstdWriteCloser struct {
	enc  *zstd.Encoder
	file *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

// Close finishes the zstd frame before closing the file.
func (z *zstdWriteCloser) Close() error {
	encErr := z.enc.Close()
	fileErr := z.file.Close()
	return errors.Join(encErr, fileErr)
}
