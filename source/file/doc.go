// Package file provides a Source which reads data from a set of files on disk matched by a glob.
// Files are loaded in their entirety, one after another, so it is favourable if individual
// files represent roughly equal-sized divisions of data.
package file
