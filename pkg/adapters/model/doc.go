// Package model loads model artifacts.
//
// The loader picks a format by file extension:
//   - .yaml, .yml, .json: a graph document (see package graph)
//   - .zip: an archive holding one graph document
//
// Loading happens once at startup; any error is fatal to the caller.
package model
