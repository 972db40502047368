// Package html extracts readable text from HTML pages saved to disk.
package html
