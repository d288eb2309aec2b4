// Package requestlog appends one accounting line per transcription request to
// a flat file.
package requestlog
