// Package queue implements the transcription job queue: an unbounded
// multi-producer single-consumer FIFO, the shared statistics observed by
// status queries, and the pure status rendering. Exactly one worker consumes
// the queue, so jobs are processed strictly in acceptance order.
package queue
