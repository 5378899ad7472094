// Package storage defines the vault file-system abstraction.
package storage

// RelocateResult reports the outcome of a Relocate call.
// Either the file moved, or it was left at its original location and
// Reason says why.
type RelocateResult struct {
	Moved  bool
	Reason error
}

// Provider is the interface for vault file operations.
// All paths are relative to the vault root.
type Provider interface {
	// ListDir returns the names of regular files directly inside dir,
	// without descending into subdirectories.
	ListDir(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Exists reports whether path names an existing regular file.
	Exists(path string) bool
	// Copy duplicates src to dst, preserving file mode and mod time.
	Copy(src, dst string) error
	// Relocate moves src to dst, creating dst's parent directories.
	// When a rename is not possible it falls back to copy+delete; when
	// that fails too, the file stays in place and the result says why.
	Relocate(src, dst string) RelocateResult
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}
