// Package worker consumes queued media jobs and runs them through the
// conversion and transcription pipeline, delivering results back to the
// originating chat.
package worker
