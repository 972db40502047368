// Package normalisers provides implementations of the TextExtractor interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Normalisers are registered with a Registry at startup, which dispatches
// each document to the normaliser for its MIME type.
package normalisers
