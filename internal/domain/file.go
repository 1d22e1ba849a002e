package domain

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// UploadedFile is one accepted part of a multipart batch. Its bytes live either in
// memory or in a spool file on disk; Release deletes the spool file.
type UploadedFile struct {
	OriginalName string
	MediaType    string
	SizeBytes    int64

	content []byte
	path    string

	releaseOnce sync.Once
	releaseErr  error
}

// NewMemoryFile wraps bytes already held in memory.
func NewMemoryFile(name, mediaType string, content []byte) *UploadedFile {
	return &UploadedFile{
		OriginalName: name,
		MediaType:    mediaType,
		SizeBytes:    int64(len(content)),
		content:      content,
	}
}

// NewSpooledFile refers to a file written to the spool directory.
func NewSpooledFile(name, mediaType string, size int64, path string) *UploadedFile {
	return &UploadedFile{
		OriginalName: name,
		MediaType:    mediaType,
		SizeBytes:    size,
		path:         path,
	}
}

// Path returns the spool path, or "" for in-memory files.
func (f *UploadedFile) Path() string { return f.path }

// Content returns the file bytes.
func (f *UploadedFile) Content() ([]byte, error) {
	if f.path == "" {
		return f.content, nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read spooled upload %s: %w", f.OriginalName, err)
	}
	return data, nil
}

// Release drops the in-memory bytes and removes the spool file. Safe to call more than once.
func (f *UploadedFile) Release() error {
	f.releaseOnce.Do(func() {
		f.content = nil
		if f.path == "" {
			return
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.releaseErr = err
		}
	})
	return f.releaseErr
}
