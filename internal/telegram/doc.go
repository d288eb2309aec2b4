// Package telegram is the bot transport: it gates users behind a password,
// accepts media submissions into the job queue, and delivers transcripts back
// in chat-sized chunks.
package telegram
