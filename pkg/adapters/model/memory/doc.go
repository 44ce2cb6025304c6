// Package memory provides an in-memory model adapter for tests.
package memory
