package binpatch

import (
	"bytes"
	"io/fs"
)

// Patcher performs a single byte-exact substitution inside one file.
//
// The file content is loaded by New and held in memory until Patch writes a
// new version; IsPatchable, Offset and CreateBackup all operate on that
// in-memory copy. A Patcher is not safe for concurrent use.
type Patcher struct {
	path    string
	search  []byte
	replace []byte
	options Options

	content []byte
	mode    fs.FileMode
	fs      fileSystem
}

// New validates both hex patterns, then loads path into memory. Pattern
// errors are reported before the file is touched.
func New(path, searchHex, replaceHex string) (*Patcher, error) {
	return NewWithOptions(path, searchHex, replaceHex, Options{})
}

// NewWithOptions is New with explicit substitution options.
func NewWithOptions(path, searchHex, replaceHex string, opts Options) (*Patcher, error) {
	return newPatcher(newOSFileSystem(), path, searchHex, replaceHex, opts)
}

func newPatcher(fsys fileSystem, path, searchHex, replaceHex string, opts Options) (*Patcher, error) {
	search, replace, err := decodeRequest(searchHex, replaceHex)
	if err != nil {
		return nil, err
	}

	content, mode, err := fsys.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Op: opRead, Path: path, Err: err}
	}

	return &Patcher{
		path:    path,
		search:  search,
		replace: replace,
		options: opts,
		content: content,
		mode:    mode,
		fs:      fsys,
	}, nil
}

// Path returns the file the patcher is bound to.
func (p *Patcher) Path() string {
	return p.path
}

// Search returns a copy of the decoded search bytes.
func (p *Patcher) Search() []byte {
	return bytes.Clone(p.search)
}

// Replace returns a copy of the decoded replacement bytes.
func (p *Patcher) Replace() []byte {
	return bytes.Clone(p.replace)
}

// Content returns a copy of the bytes currently held in memory.
func (p *Patcher) Content() []byte {
	return bytes.Clone(p.content)
}

// Offset returns the position of the first occurrence of the search bytes in
// the current content, or -1.
func (p *Patcher) Offset() int {
	return bytes.Index(p.content, p.search)
}

// IsPatchable reports whether the current content contains the search bytes.
func (p *Patcher) IsPatchable() bool {
	return p.Offset() >= 0
}

// CreateBackup writes the content currently held in memory to path,
// replacing any existing file. Called after a successful Patch it backs up
// the patched bytes, not the original ones.
func (p *Patcher) CreateBackup(path string) error {
	if err := p.fs.WriteFile(path, p.content, p.mode&fs.ModePerm); err != nil {
		return &FileAccessError{Op: opBackup, Path: path, Err: err}
	}
	return nil
}

// Patch replaces the first occurrence of the search bytes (every occurrence
// with Options.ReplaceAll) and rewrites the file. When the pattern is absent
// or the write fails, neither the file nor the in-memory content changes.
// Calling Patch again re-evaluates against the patched content.
func (p *Patcher) Patch() (Result, error) {
	patched, result, ok := substitute(p.content, p.search, p.replace, p.options)
	if !ok {
		return Result{}, &PatternNotFoundError{Path: p.path, Search: bytes.Clone(p.search)}
	}
	if err := p.fs.WriteFileAtomic(p.path, patched, p.mode); err != nil {
		return Result{}, &FileAccessError{Op: opWrite, Path: p.path, Err: err}
	}
	p.content = patched
	result.Path = p.path
	return result, nil
}
