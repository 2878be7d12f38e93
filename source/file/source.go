package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-sif/grouping"
)

// Source is a set of files containing data which will be grouped
type Source struct {
	globs []string
	log   logr.Logger
}

// CreateSource is a factory for Sources. Each glob must match at least one file.
func CreateSource(log logr.Logger, globs ...string) *Source {
	return &Source{globs: globs, log: log}
}

// Analyze returns a LoaderMap, describing how the source files will be divided into batches
func (fs *Source) Analyze() (grouping.LoaderMap, error) {
	var toRead []string
	seen := make(map[string]bool)
	for _, glob := range fs.globs {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("glob %s produced 0 files", glob)
		}
		for _, path := range matches {
			if !seen[path] {
				seen[path] = true
				toRead = append(toRead, path)
			}
		}
	}
	return &LoaderMap{files: toRead, source: fs}, nil
}

// IsStreaming returns true iff this Source provides a continuous stream of data
func (fs *Source) IsStreaming() bool {
	return false
}

// LoaderMap is an iterator producing a sequence of ElementLoaders, one per file
type LoaderMap struct {
	files  []string
	source *Source
}

// HasNext returns true iff there is another file to load
func (lm *LoaderMap) HasNext() bool {
	return len(lm.files) > 0
}

// Next returns the loader for the next file
func (lm *LoaderMap) Next() grouping.ElementLoader {
	path := lm.files[0]
	lm.files = lm.files[1:]
	return &ElementLoader{path: path, source: lm.source}
}

// ElementLoader is capable of loading elements from a file
type ElementLoader struct {
	path   string
	source *Source
}

// ToString returns a string representation of this ElementLoader
func (el *ElementLoader) ToString() string {
	return fmt.Sprintf("File loader filename: %s", el.path)
}

// Load opens the file and parses it, closing the file once its elements are exhausted. The
// returned iterator is also an io.Closer, for abandoning the file early.
func (el *ElementLoader) Load(parser grouping.ElementParser) (grouping.ElementIterator, error) {
	f, err := os.Open(el.path)
	if err != nil {
		return nil, err
	}
	it := &fileIterator{}
	it.close = func() error {
		var err error
		it.once.Do(func() {
			err = f.Close()
			if err != nil {
				el.source.log.Error(err, "couldn't close file", "path", el.path)
			}
		})
		return err
	}
	inner, err := parser.Iterate(f, func() { _ = it.close() })
	if err != nil {
		_ = it.close()
		return nil, err
	}
	it.ElementIterator = inner
	return it, nil
}

type fileIterator struct {
	grouping.ElementIterator
	once  sync.Once
	close func() error
}

// Close closes the underlying file, if it is not already closed
func (it *fileIterator) Close() error {
	return it.close()
}
