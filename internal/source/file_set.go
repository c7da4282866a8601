package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves spans to
// line/column positions. Shader sources arrive either from disk (CLI) or
// as in-memory strings (the host renderer), so both paths go through Add.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and
// returns a new FileID. It always creates a new FileID even if a file with
// the same path already exists.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if normalized, changed := removeBOM(content); changed {
		content = normalized
		flags |= FileHadBOM
	}
	if normalized, changed := normalizeCRLF(content); changed {
		content = normalized
		flags |= FileNormalizedCRLF
	}

	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[path] = id
	return id
}

// AddVirtual registers an in-memory source under a display name.
func (fs *FileSet) AddVirtual(name string, src string) FileID {
	return fs.Add(name, []byte(src), FileVirtual)
}

// Load reads a file from disk and adds it to the set.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fs.Add(path, content, 0), nil
}

// Get returns the file with the given ID, or nil if the ID is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the most recently added file registered under path.
func (fs *FileSet) Lookup(path string) (*File, bool) {
	id, ok := fs.index[path]
	if !ok {
		return nil, false
	}
	return &fs.files[id], true
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve maps the start of a span to a 1-based line/column pair.
func (fs *FileSet) Resolve(sp Span) (LineCol, bool) {
	f := fs.Get(sp.File)
	if f == nil {
		return LineCol{}, false
	}
	return resolveOffset(f, sp.Start), true
}

func resolveOffset(f *File, off uint32) LineCol {
	// LineIdx holds the byte offset just past each newline; shader sources
	// are small enough that a linear walk beats keeping a search structure.
	line := uint32(1)
	lineStart := uint32(0)
	for _, nl := range f.LineIdx {
		if nl > off {
			break
		}
		line++
		lineStart = nl
	}
	return LineCol{Line: line, Col: off - lineStart + 1}
}
