// Package connectors provides the document sources docqa reads from.
// The filesystem connector loads a local document and watches it for changes.
package connectors
