// Package filesystem provides a document source that reads a corpus
// directory of plain-text and markdown files.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource  = (*Source)(nil)
	_ driven.WatchableSource = (*Source)(nil)
)

// corpusExtensions are the file types treated as corpus documents.
var corpusExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Source reads corpus documents from a directory tree.
type Source struct {
	root string
}

// New creates a document source rooted at dir. The directory must exist.
func New(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}
	return &Source{root: dir}, nil
}

// Load walks the corpus directory and returns one RawDocument per readable
// .txt or .md file, in path order. Unreadable files are skipped with a
// warning rather than failing the whole load.
func (s *Source) Load(ctx context.Context) ([]domain.RawDocument, error) {
	var docs []domain.RawDocument

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Hidden directories hold editor state, not corpus text.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable corpus file %s: %v", path, err)
			return nil
		}
		if len(strings.TrimSpace(string(content))) == 0 {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}

		docs = append(docs, domain.RawDocument{
			Source:  rel,
			Content: string(content),
			Metadata: map[string]string{
				"path": path,
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	return docs, nil
}

// LoadFile reads a single corpus file into a RawDocument. The path may be
// absolute, as delivered by Watch, or relative to the corpus root.
func (s *Source) LoadFile(ctx context.Context, path string) (domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawDocument{}, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	if !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
		return domain.RawDocument{}, fmt.Errorf("%w: %s is not a corpus file", domain.ErrInvalidInput, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read corpus file: %w", err)
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	return domain.RawDocument{
		Source:  rel,
		Content: string(content),
		Metadata: map[string]string{
			"path": path,
		},
	}, nil
}

// Watch reports corpus changes until ctx is cancelled. Each create, write,
// rename or removal of a corpus file sends one event on the returned channel.
// The channel is closed when the watcher stops.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the root and every subdirectory; fsnotify is not recursive.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch corpus: %w", err)
	}

	changes := make(chan string, 16)
	go func() {
		defer close(changes)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				// New subdirectories must be added to keep the watch recursive.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
						continue
					}
				}
				if !corpusExtensions[strings.ToLower(filepath.Ext(event.Name))] {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("corpus watcher: %v", err)
			}
		}
	}()

	return changes, nil
}
