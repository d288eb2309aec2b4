package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
	"github.com/mtpython/tg-speech-to-text/internal/queue"
	"github.com/mtpython/tg-speech-to-text/internal/stt"
)

// User-facing messages sent in place of a transcript when a job fails.
const (
	msgConversionFailed = "❌ Failed to process audio. The file might be corrupted or in an unsupported format."
	msgSTTUnavailable   = "❌ Speech-to-text service is temporarily unavailable. Please try again later."
	msgGenericError     = "❌ An error occurred while processing your audio. Please try again."
	msgNoSpeech         = "🔇 No speech detected in the audio. The audio might be too quiet or contain no spoken words."
)

// Converter turns raw media bytes into audio matching a target profile.
type Converter interface {
	Convert(ctx context.Context, data []byte, filename string, target audio.Target) (*audio.ConvertedAudio, error)
}

// Transcriber produces transcript text for converted audio.
type Transcriber interface {
	Transcribe(ctx context.Context, a *audio.ConvertedAudio) (string, error)
}

// Messenger covers the chat operations the worker needs. Send, Edit and
// Delete operate on plain text and notice messages; DeliverTranscript applies
// chunking and formatting for transcript delivery.
type Messenger interface {
	Send(chatID int64, replyTo int, text string) error
	Edit(chatID int64, messageID int, text string) error
	Delete(chatID int64, messageID int) error
	DeliverTranscript(chatID int64, replyTo int, transcript string) error
}

// RequestLog records per-request accounting lines.
type RequestLog interface {
	Record(userID int64, username string, size int) error
}

// Recorder receives pipeline measurements. A nil Recorder disables metrics.
type Recorder interface {
	SetQueueSize(n int)
	RecordJobProcessed(d time.Duration)
	RecordJobFailed(d time.Duration)
	RecordConversionDuration(d time.Duration)
	RecordTranscriptionDuration(d time.Duration)
}

// Worker drains the job queue one job at a time.
type Worker struct {
	queue       *queue.Queue
	stats       *queue.Statistics
	converter   Converter
	transcriber Transcriber
	provider    stt.Provider
	messenger   Messenger
	requestLog  RequestLog
	recorder    Recorder
	logger      *slog.Logger
}

// Options bundles the worker's collaborators. RequestLog and Recorder may be
// nil; everything else is required.
type Options struct {
	Queue       *queue.Queue
	Stats       *queue.Statistics
	Converter   Converter
	Transcriber Transcriber
	Provider    stt.Provider
	Messenger   Messenger
	RequestLog  RequestLog
	Recorder    Recorder
	Logger      *slog.Logger
}

// New returns a worker ready to Run.
func New(opts Options) *Worker {
	return &Worker{
		queue:       opts.Queue,
		stats:       opts.Stats,
		converter:   opts.Converter,
		transcriber: opts.Transcriber,
		provider:    opts.Provider,
		messenger:   opts.Messenger,
		requestLog:  opts.RequestLog,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
	}
}

// Run processes jobs until the queue is closed and drained. It is meant to be
// launched in its own goroutine; it returns after the final job completes.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", slog.String("provider", w.provider.String()))

	for {
		job, ok := w.queue.Dequeue()
		if !ok {
			w.logger.Info("worker stopped, queue closed")
			return
		}
		w.process(ctx, job)
		if w.recorder != nil {
			w.recorder.SetQueueSize(w.queue.Len())
		}
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	start := time.Now()
	w.stats.SetProcessing(job.ID)

	w.logger.Info("processing job",
		slog.String("job_id", job.ID),
		slog.String("filename", job.Filename),
		slog.String("user", job.UserInfo),
		slog.Int("bytes", len(job.Data)),
	)

	// Best effort: the notice may already be gone.
	if err := w.messenger.Edit(job.ChatID, job.NoticeID, "🎵 Processing audio...\nFile: "+job.Filename); err != nil {
		w.logger.Debug("failed to update queue notice", slog.String("job_id", job.ID), slog.Any("error", err))
	}

	if w.requestLog != nil && w.provider == stt.ProviderElevenLabs {
		if err := w.requestLog.Record(job.UserID, job.Username, len(job.Data)); err != nil {
			w.logger.Warn("failed to record request", slog.String("job_id", job.ID), slog.Any("error", err))
		}
	}

	transcript, err := w.runPipeline(ctx, job)

	// The notice served its purpose either way.
	if derr := w.messenger.Delete(job.ChatID, job.NoticeID); derr != nil {
		w.logger.Debug("failed to delete queue notice", slog.String("job_id", job.ID), slog.Any("error", derr))
	}

	if err != nil {
		w.fail(job, err, start)
		return
	}

	if strings.TrimSpace(transcript) == "" {
		if serr := w.messenger.Send(job.ChatID, job.ReplyToID, msgNoSpeech); serr != nil {
			w.logger.Error("failed to send no-speech reply", slog.String("job_id", job.ID), slog.Any("error", serr))
		}
	} else {
		if serr := w.messenger.DeliverTranscript(job.ChatID, job.ReplyToID, transcript); serr != nil {
			w.logger.Error("failed to deliver transcript", slog.String("job_id", job.ID), slog.Any("error", serr))
			w.fail(job, serr, start)
			return
		}
	}

	w.stats.IncrementProcessed()
	if w.recorder != nil {
		w.recorder.RecordJobProcessed(time.Since(start))
	}
	w.logger.Info("job completed",
		slog.String("job_id", job.ID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("transcript_chars", len(transcript)),
	)
}

// runPipeline converts and transcribes one job. Errors keep their original
// type so fail can pick the right user message.
func (w *Worker) runPipeline(ctx context.Context, job *queue.Job) (string, error) {
	target := stt.ConversionTarget(w.provider)

	convStart := time.Now()
	converted, err := w.converter.Convert(ctx, job.Data, job.Filename, target)
	if err != nil {
		return "", err
	}
	if w.recorder != nil {
		w.recorder.RecordConversionDuration(time.Since(convStart))
	}

	sttStart := time.Now()
	transcript, err := w.transcriber.Transcribe(ctx, converted)
	if err != nil {
		return "", err
	}
	if w.recorder != nil {
		w.recorder.RecordTranscriptionDuration(time.Since(sttStart))
	}

	return transcript, nil
}

func (w *Worker) fail(job *queue.Job, err error, start time.Time) {
	w.logger.Error("job failed",
		slog.String("job_id", job.ID),
		slog.String("filename", job.Filename),
		slog.Any("error", err),
	)

	if serr := w.messenger.Send(job.ChatID, job.ReplyToID, userMessageFor(err)); serr != nil {
		w.logger.Error("failed to send error reply", slog.String("job_id", job.ID), slog.Any("error", serr))
	}

	w.stats.IncrementFailed()
	if w.recorder != nil {
		w.recorder.RecordJobFailed(time.Since(start))
	}
}

// userMessageFor maps a pipeline error to the message shown in chat.
func userMessageFor(err error) string {
	var convErr *audio.ConversionError
	var unsupported *audio.UnsupportedFormatError
	switch {
	case errors.Is(err, audio.ErrEncoderNotFound),
		errors.As(err, &convErr),
		errors.As(err, &unsupported):
		return msgConversionFailed
	}

	var apiErr *stt.APIError
	var transportErr *stt.TransportError
	switch {
	case errors.Is(err, stt.ErrAuthentication),
		errors.Is(err, stt.ErrRateLimit),
		errors.Is(err, stt.ErrServiceUnavailable),
		errors.Is(err, stt.ErrUnsupportedAudio),
		errors.As(err, &apiErr),
		errors.As(err, &transportErr):
		return msgSTTUnavailable
	}

	return msgGenericError
}
