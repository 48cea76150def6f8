package solgraph

import (
	"os"
	"sort"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// SourceFile is one entry of a build's source registry. Text and the
// newline table are materialized lazily on first position lookup: from a
// seeded buffer when the caller provided one, otherwise from disk at Path.
type SourceFile struct {
	Index int
	Path  string

	once        sync.Once
	text        []byte
	lineOffsets []int
	loadErr     error
}

// seed installs source text ahead of the lazy load. Seeding after the
// newline table exists is a no-op; the first materialization wins.
func (f *SourceFile) seed(text []byte) {
	f.once.Do(func() {
		f.text = text
		f.lineOffsets = newlineTable(text)
	})
}

func (f *SourceFile) load() {
	f.once.Do(func() {
		text, err := os.ReadFile(f.Path)
		if err != nil {
			f.loadErr = errors.Errorf("%w: %s: %v", ErrNoSource, f.Path, err)
			return
		}
		f.text = text
		f.lineOffsets = newlineTable(text)
	})
}

// Text returns the file content, reading it from disk on first use if it
// was not seeded. Fails with ErrNoSource when the file cannot be read.
func (f *SourceFile) Text() ([]byte, error) {
	f.load()
	return f.text, f.loadErr
}

// Position converts a byte offset to a zero-based line and byte column.
// Offsets past the end of the file clamp to the final position.
func (f *SourceFile) Position(offset int) (Position, error) {
	f.load()
	if f.loadErr != nil {
		return Position{}, f.loadErr
	}
	if offset > len(f.text) {
		offset = len(f.text)
	}
	if offset < 0 {
		offset = 0
	}
	// Last line whose start is at or before the offset.
	line := sort.Search(len(f.lineOffsets), func(i int) bool {
		return f.lineOffsets[i] > offset
	}) - 1
	return Position{Line: line, Column: offset - f.lineOffsets[line]}, nil
}

// Offset converts a zero-based line and byte column back to a byte offset,
// clamping past-the-end lines and columns.
func (f *SourceFile) Offset(pos Position) (int, error) {
	f.load()
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	if pos.Line < 0 || pos.Line >= len(f.lineOffsets) {
		return len(f.text), nil
	}
	start := f.lineOffsets[pos.Line]
	end := len(f.text)
	if pos.Line+1 < len(f.lineOffsets) {
		end = f.lineOffsets[pos.Line+1] - 1 // exclude the newline
	}
	offset := start + pos.Column
	if offset > end {
		offset = end
	}
	if offset < start {
		offset = start
	}
	return offset, nil
}

// UTF16Position converts a byte offset to an editor position whose column
// counts UTF-16 code units.
func (f *SourceFile) UTF16Position(offset int) (Position, error) {
	f.load()
	if f.loadErr != nil {
		return Position{}, f.loadErr
	}
	return ByteOffsetToUTF16(f.text, offset), nil
}

// UTF16Offset converts an editor position (UTF-16 column) to a byte offset.
func (f *SourceFile) UTF16Offset(pos Position) (int, error) {
	f.load()
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	return UTF16ToByteOffset(f.text, pos), nil
}

func newlineTable(text []byte) []int {
	offsets := []int{0}
	for i, b := range text {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// SourceRegistry maps a build's file indexes to paths and back. Frozen once
// the build is constructed; only the per-file lazy text load mutates state
// afterwards, guarded by each file's sync.Once.
type SourceRegistry struct {
	byIndex map[int]*SourceFile
	byPath  map[string]*SourceFile
	indexes []int
}

func newSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		byIndex: make(map[int]*SourceFile),
		byPath:  make(map[string]*SourceFile),
	}
}

func (r *SourceRegistry) add(index int, path string) error {
	if _, ok := r.byIndex[index]; ok {
		return errors.Errorf("%w: file index %d claimed twice", ErrSchema, index)
	}
	f := &SourceFile{Index: index, Path: path}
	r.byIndex[index] = f
	r.byPath[path] = f
	r.indexes = append(r.indexes, index)
	sort.Ints(r.indexes)
	return nil
}

// SeedText installs content for a registered path, so position lookups use
// the given buffer instead of reading from disk. Returns false when the
// path is not in the registry.
func (r *SourceRegistry) SeedText(path string, text []byte) bool {
	f, ok := r.byPath[path]
	if !ok {
		return false
	}
	f.seed(text)
	return true
}

// ResolvePath maps a span's file index to its path. Fails with
// ErrUnknownFileIndex for indexes outside the registry, including the
// compiler's -1 for generated code.
func (r *SourceRegistry) ResolvePath(fileIndex int) (string, error) {
	f, ok := r.byIndex[fileIndex]
	if !ok {
		return "", errors.Errorf("%w: %d", ErrUnknownFileIndex, fileIndex)
	}
	return f.Path, nil
}

// File returns the registry entry for a file index.
func (r *SourceRegistry) File(fileIndex int) (*SourceFile, error) {
	f, ok := r.byIndex[fileIndex]
	if !ok {
		return nil, errors.Errorf("%w: %d", ErrUnknownFileIndex, fileIndex)
	}
	return f, nil
}

// FileByPath returns the entry whose path matches exactly, or, failing
// that, the unique entry path ends with the argument. The suffix form lets
// editor-side absolute paths find registry entries recorded relative to the
// project root.
func (r *SourceRegistry) FileByPath(path string) (*SourceFile, bool) {
	if f, ok := r.byPath[path]; ok {
		return f, true
	}
	var match *SourceFile
	for p, f := range r.byPath {
		if strings.HasSuffix(path, p) || strings.HasSuffix(p, path) {
			if match != nil {
				return nil, false
			}
			match = f
		}
	}
	return match, match != nil
}

// Contains reports whether a path is registered exactly.
func (r *SourceRegistry) Contains(path string) bool {
	_, ok := r.byPath[path]
	return ok
}

// Files lists registry entries in ascending file-index order.
func (r *SourceRegistry) Files() []*SourceFile {
	files := make([]*SourceFile, 0, len(r.indexes))
	for _, i := range r.indexes {
		files = append(files, r.byIndex[i])
	}
	return files
}

// Len is the number of registered files.
func (r *SourceRegistry) Len() int {
	return len(r.byIndex)
}

// Position resolves a span's file index and converts its start offset in
// one step.
func (r *SourceRegistry) Position(fileIndex, offset int) (Position, error) {
	f, err := r.File(fileIndex)
	if err != nil {
		return Position{}, err
	}
	return f.Position(offset)
}
