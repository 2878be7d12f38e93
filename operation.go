package grouping

// MapOperation - A generic function for deriving a new value from a Traverser
type MapOperation func(t Traverser) (interface{}, error)

// FilterOperation - A generic function for determining whether or not a Traverser should be retained
type FilterOperation func(t Traverser) (bool, error)

// FlatMapOperation - A generic function for turning a Traverser into zero or more values, each of which inherits the Traverser's Bulk
type FlatMapOperation func(t Traverser) ([]interface{}, error)
