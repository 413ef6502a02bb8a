package model

import (
	"sort"
	"strings"
)

// File is one virtual source file handed to the preview widget.
type File struct {
	Code   string `json:"code"`
	Hidden bool   `json:"hidden,omitempty"`
}

// CachedFiles maps a virtual path such as "/src/App.tsx" to its file.
type CachedFiles map[string]File

// Clone returns an independent copy of f.
func (f CachedFiles) Clone() CachedFiles {
	if f == nil {
		return nil
	}
	out := make(CachedFiles, len(f))
	for path, file := range f {
		out[path] = file
	}
	return out
}

// Paths returns the file paths in sorted order.
func (f CachedFiles) Paths() []string {
	paths := make([]string, 0, len(f))
	for path := range f {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Fingerprint joins "path:code" pairs sorted by path with "|". Two file sets
// with the same fingerprint are considered identical.
func (f CachedFiles) Fingerprint() string {
	paths := f.Paths()
	parts := make([]string, len(paths))
	for i, path := range paths {
		parts[i] = path + ":" + f[path].Code
	}
	return strings.Join(parts, "|")
}

// Changed reports whether f differs from baseline.
func (f CachedFiles) Changed(baseline CachedFiles) bool {
	return f.Fingerprint() != baseline.Fingerprint()
}

// Codes returns just the source text of every file.
func (f CachedFiles) Codes() map[string]string {
	out := make(map[string]string, len(f))
	for path, file := range f {
		out[path] = file.Code
	}
	return out
}

// FromCodes builds a file set from path to source text.
func FromCodes(codes map[string]string) CachedFiles {
	out := make(CachedFiles, len(codes))
	for path, code := range codes {
		out[path] = File{Code: code}
	}
	return out
}
