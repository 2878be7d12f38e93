// Package grouping contains the core components of a grouping aggregation engine, which groups a
// stream of traversed elements by a computed key, folds each group through a nested value
// pipeline, and produces a final key to value mapping. This root package defines types which are
// shared by the engine, its steps and the hosts which embed it, and is an overview of the key
// concepts: Traversers, Steps, barriers and Combiners.
package grouping
