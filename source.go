package grouping

import "io"

// An ElementIterator produces batches of elements. NextBatch returns errors.NoMoreElementsError
// once the underlying data is exhausted.
type ElementIterator interface {
	HasNextBatch() bool
	NextBatch() ([]Traverser, error)
}

// An ElementParser turns raw data into elements. onIteratorEnd, if non-nil, is called exactly once
// when the returned ElementIterator is exhausted or fails.
type ElementParser interface {
	Iterate(r io.Reader, onIteratorEnd func()) (ElementIterator, error)
}

// ElementLoader is a description of how to load a specific division of data from a Source.
// Sources implement this interface to implement data-loading logic.
type ElementLoader interface {
	ToString() string                                   // for logging
	Load(parser ElementParser) (ElementIterator, error) // how to actually load data
}

// LoaderMap is an interface describing an iterator for ElementLoaders.
// Returned by Source.Analyze(), a driver will iterate through ElementLoaders and aggregate
// the elements each one produces.
type LoaderMap interface {
	HasNext() bool
	Next() ElementLoader
}

// Source is a source of data which will be grouped. It represents information about how to
// load data from the source as batches of elements.
type Source interface {
	Analyze() (LoaderMap, error)
	IsStreaming() bool
}
