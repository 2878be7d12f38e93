// Package memory provides a Source backed by in-memory buffers, each of which is parsed as a
// separate division of data.
package memory

import (
	"bytes"
	"fmt"

	"github.com/go-sif/grouping"
)

// Source is a set of buffers containing data which will be grouped
type Source struct {
	data [][]byte
}

// CreateSource is a factory for Sources
func CreateSource(data ...[]byte) *Source {
	return &Source{data: data}
}

// Analyze returns a LoaderMap with one ElementLoader per buffer
func (ms *Source) Analyze() (grouping.LoaderMap, error) {
	return &LoaderMap{source: ms}, nil
}

// IsStreaming returns true iff this Source provides a continuous stream of data
func (ms *Source) IsStreaming() bool {
	return false
}

// LoaderMap is an iterator producing a sequence of ElementLoaders
type LoaderMap struct {
	idx    int
	source *Source
}

// HasNext returns true iff there is another buffer to load
func (lm *LoaderMap) HasNext() bool {
	return lm.idx < len(lm.source.data)
}

// Next returns the loader for the next buffer
func (lm *LoaderMap) Next() grouping.ElementLoader {
	el := &ElementLoader{idx: lm.idx, source: lm.source}
	lm.idx++
	return el
}

// ElementLoader is capable of loading elements from a buffer
type ElementLoader struct {
	idx    int
	source *Source
}

// ToString returns a string representation of this ElementLoader
func (el *ElementLoader) ToString() string {
	return fmt.Sprintf("Memory loader index: %d", el.idx)
}

// Load parses the buffer
func (el *ElementLoader) Load(parser grouping.ElementParser) (grouping.ElementIterator, error) {
	return parser.Iterate(bytes.NewReader(el.source.data[el.idx]), nil)
}
