package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoFiles is returned when an upload batch names no files
var ErrNoFiles = errors.New("no files to upload")

// OpenedFiles is a batch of local files ready to upload
type OpenedFiles struct {
	Files     []UploadFile
	TotalSize int64
	handles   []*os.File
}

// Close closes every opened file
func (o *OpenedFiles) Close() error {
	var firstErr error
	for _, f := range o.handles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.handles = nil
	return firstErr
}

// OpenUploadFiles opens paths for upload, using each file's base name as
// the form file name. Directories are rejected.
func OpenUploadFiles(paths []string) (*OpenedFiles, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	opened := &OpenedFiles{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			_ = opened.Close()
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			_ = opened.Close()
			return nil, fmt.Errorf("%s is a directory", p)
		}

		f, err := os.Open(p)
		if err != nil {
			_ = opened.Close()
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		opened.handles = append(opened.handles, f)
		opened.Files = append(opened.Files, UploadFile{Name: filepath.Base(p), Content: f})
		opened.TotalSize += info.Size()
	}
	return opened, nil
}
