// Package steps provides the grouping.Steps used to build key and value pipelines: selectors,
// filters, and the barriers (count, sum, fold, distinct, ...) which a group can exploit to avoid
// materializing every element of a group.
package steps
