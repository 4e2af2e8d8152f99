package source

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// FileSet owns every source file seen by one compilation unit (the
// top-level file plus everything pulled in through #include) and resolves
// byte offsets back to human-readable line/column pairs.
type FileSet struct {
	files []File
	byName map[string]FileID // normalized resource name -> id
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files:  make([]File, 0, 4),
		byName: make(map[string]FileID, 4),
	}
}

// Add registers a new file under the given resource name and returns its ID.
// The same resource name may be added more than once (re-inclusion produces
// a distinct FileID each time); callers that want the include-cache
// semantics from spec.md use FileSet only for storage, not dedup.
func (fs *FileSet) Add(name string, content []byte, flags FileFlags) FileID {
	idx, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("source: file set overflow: %w", err))
	}
	id := FileID(idx + 1) // 0 is NoFileID
	fs.files = append(fs.files, File{
		ID:      id,
		Name:    name,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fs.byName[NormalizeResourceName(name)] = id
	return id
}

// Get returns the file for id, or nil if id is not registered.
func (fs *FileSet) Get(id FileID) *File {
	if id == NoFileID || int(id) > len(fs.files) {
		return nil
	}
	return &fs.files[id-1]
}

// Lookup returns the most recently added file registered under name.
func (fs *FileSet) Lookup(name string) (FileID, bool) {
	id, ok := fs.byName[NormalizeResourceName(name)]
	return id, ok
}

// Position converts a byte offset within file into a 1-based line/column.
func (fs *FileSet) Position(file FileID, offset uint32) LineCol {
	f := fs.Get(file)
	if f == nil {
		return LineCol{}
	}
	// LineIdx[i] holds the byte offset where line i+1 begins.
	line := sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] > offset })
	if line == 0 {
		return LineCol{Line: 1, Col: offset + 1}
	}
	lineStart := f.LineIdx[line-1]
	return LineCol{Line: uint32(line), Col: offset - lineStart + 1}
}

func buildLineIndex(content []byte) []uint32 {
	idx := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i+1))
		}
	}
	return idx
}
