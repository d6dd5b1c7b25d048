// Package parsers provides implementations of the Parser interface for
// various document formats. Each parser knows how to extract pages and
// full text from a family of file extensions.
//
// Parsers are registered with the Registry at startup; selection is by
// extension, with the highest-priority match winning.
package parsers
