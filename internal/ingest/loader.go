// Package ingest loads documents from disk, chunks and embeds them,
// and writes them to the search backend. A file lock serializes
// concurrent ingest runs; a watcher keeps the index in sync with a
// changing document directory.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperr "github.com/passagekit/passage/internal/errors"
)

// Document is a loaded source file ready for chunking.
type Document struct {
	// Source is the path relative to the docs root; it becomes the
	// chunk identity prefix.
	Source string
	// Title is the file name without extension.
	Title string
	// Text is the full file content.
	Text string
	// ModTime is the file's modification time, recorded as the
	// chunks' creation timestamp.
	ModTime time.Time
}

// supportedExtensions lists the file types the loader ingests.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// IsSupported reports whether path has an ingestible extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadDocument reads a single file. source should be the path relative
// to the docs root.
func LoadDocument(path, source string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeFileNotFound,
			fmt.Sprintf("cannot stat %s", path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeFileNotFound,
			fmt.Sprintf("cannot read %s", path), err)
	}

	base := filepath.Base(path)
	return &Document{
		Source:  filepath.ToSlash(source),
		Title:   strings.TrimSuffix(base, filepath.Ext(base)),
		Text:    string(data),
		ModTime: info.ModTime(),
	}, nil
}

// LoadDir walks root and loads every supported file, sorted by path.
func LoadDir(root string) ([]*Document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, apperr.New(apperr.ErrCodeFileNotFound,
			fmt.Sprintf("documents directory %s does not exist", root), err)
	}

	var docs []*Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsSupported(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		doc, err := LoadDocument(path, rel)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		if _, ok := err.(*apperr.Error); ok {
			return nil, err
		}
		return nil, apperr.New(apperr.ErrCodeFileNotFound,
			fmt.Sprintf("cannot walk %s", root), err)
	}
	return docs, nil
}
