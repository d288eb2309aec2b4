package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
	"github.com/mtpython/tg-speech-to-text/internal/queue"
	"github.com/mtpython/tg-speech-to-text/internal/stt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConverter struct {
	err   error
	calls int
}

func (f *fakeConverter) Convert(_ context.Context, data []byte, _ string, target audio.Target) (*audio.ConvertedAudio, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &audio.ConvertedAudio{
		Data:       data,
		Format:     target.Format,
		SampleRate: target.SampleRate,
		Channels:   target.Channels,
	}, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ *audio.ConvertedAudio) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type sentMessage struct {
	op      string // send, edit, delete, transcript
	chatID  int64
	msgID   int
	replyTo int
	text    string
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []sentMessage
	sendErr  error
}

func (f *fakeMessenger) record(m sentMessage) {
	f.mu.Lock()
	f.messages = append(f.messages, m)
	f.mu.Unlock()
}

func (f *fakeMessenger) Send(chatID int64, replyTo int, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.record(sentMessage{op: "send", chatID: chatID, replyTo: replyTo, text: text})
	return nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, text string) error {
	f.record(sentMessage{op: "edit", chatID: chatID, msgID: messageID, text: text})
	return nil
}

func (f *fakeMessenger) Delete(chatID int64, messageID int) error {
	f.record(sentMessage{op: "delete", chatID: chatID, msgID: messageID})
	return nil
}

func (f *fakeMessenger) DeliverTranscript(chatID int64, replyTo int, transcript string) error {
	f.record(sentMessage{op: "transcript", chatID: chatID, replyTo: replyTo, text: transcript})
	return nil
}

func (f *fakeMessenger) byOp(op string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.messages {
		if m.op == op {
			out = append(out, m)
		}
	}
	return out
}

type fakeRequestLog struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeRequestLog) Record(userID int64, username string, size int) error {
	f.mu.Lock()
	f.entries = append(f.entries, fmt.Sprintf("%d/%s/%d", userID, username, size))
	f.mu.Unlock()
	return nil
}

func newTestWorker(t *testing.T, opts Options) (*Worker, *queue.Queue, *queue.Statistics) {
	t.Helper()
	if opts.Queue == nil {
		opts.Queue = queue.New()
	}
	if opts.Stats == nil {
		opts.Stats = queue.NewStatistics()
	}
	if opts.Converter == nil {
		opts.Converter = &fakeConverter{}
	}
	if opts.Transcriber == nil {
		opts.Transcriber = &fakeTranscriber{text: "hello world"}
	}
	if opts.Messenger == nil {
		opts.Messenger = &fakeMessenger{}
	}
	opts.Logger = testLogger()
	return New(opts), opts.Queue, opts.Stats
}

func runToCompletion(t *testing.T, w *Worker, q *queue.Queue) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	q.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after queue close")
	}
}

func enqueue(t *testing.T, q *queue.Queue, s *queue.Statistics, job *queue.Job) {
	t.Helper()
	if _, err := q.Enqueue(job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	s.IncrementQueued()
}

func TestWorkerDeliversTranscript(t *testing.T) {
	msgr := &fakeMessenger{}
	w, q, s := newTestWorker(t, Options{
		Transcriber: &fakeTranscriber{text: "the quick brown fox"},
		Messenger:   msgr,
		Provider:    stt.ProviderWhisper,
	})

	enqueue(t, q, s, &queue.Job{
		ID: "job-1", ChatID: 42, NoticeID: 7, ReplyToID: 3,
		Data: []byte("voice"), Filename: "voice.ogg",
	})
	runToCompletion(t, w, q)

	transcripts := msgr.byOp("transcript")
	if len(transcripts) != 1 {
		t.Fatalf("expected 1 transcript delivery, got %d", len(transcripts))
	}
	got := transcripts[0]
	if got.chatID != 42 || got.replyTo != 3 || got.text != "the quick brown fox" {
		t.Errorf("unexpected delivery: %+v", got)
	}

	edits := msgr.byOp("edit")
	if len(edits) != 1 || edits[0].msgID != 7 || !strings.Contains(edits[0].text, "voice.ogg") {
		t.Errorf("unexpected notice edit: %+v", edits)
	}
	deletes := msgr.byOp("delete")
	if len(deletes) != 1 || deletes[0].msgID != 7 {
		t.Errorf("unexpected notice delete: %+v", deletes)
	}

	snap := s.Snapshot()
	if snap.TotalProcessed != 1 || snap.TotalFailed != 0 || snap.QueueSize != 0 {
		t.Errorf("unexpected stats: %+v", snap)
	}
}

func TestWorkerProcessesJobsInOrder(t *testing.T) {
	msgr := &fakeMessenger{}
	tr := &echoTranscriber{}
	w, q, s := newTestWorker(t, Options{
		Transcriber: tr,
		Messenger:   msgr,
		Provider:    stt.ProviderWhisper,
	})

	for i := 0; i < 3; i++ {
		enqueue(t, q, s, &queue.Job{
			ID: fmt.Sprintf("job-%d", i), ChatID: 1,
			Data: []byte(fmt.Sprintf("media-%d", i)), Filename: "a.ogg",
		})
	}
	runToCompletion(t, w, q)

	transcripts := msgr.byOp("transcript")
	if len(transcripts) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(transcripts))
	}
	for i, m := range transcripts {
		if want := fmt.Sprintf("media-%d", i); m.text != want {
			t.Errorf("delivery %d: expected %q, got %q", i, want, m.text)
		}
	}

	snap := s.Snapshot()
	if snap.TotalProcessed != 3 || snap.QueueSize != 0 || snap.ProcessingID != "" {
		t.Errorf("unexpected stats: %+v", snap)
	}
}

// echoTranscriber returns the audio payload as the transcript so tests can
// check per-job routing.
type echoTranscriber struct{}

func (echoTranscriber) Transcribe(_ context.Context, a *audio.ConvertedAudio) (string, error) {
	return string(a.Data), nil
}

func TestWorkerNoSpeechReply(t *testing.T) {
	msgr := &fakeMessenger{}
	w, q, s := newTestWorker(t, Options{
		Transcriber: &fakeTranscriber{text: "   \n  "},
		Messenger:   msgr,
		Provider:    stt.ProviderWhisper,
	})

	enqueue(t, q, s, &queue.Job{ID: "job-1", ChatID: 1, ReplyToID: 9, Data: []byte("x"), Filename: "a.ogg"})
	runToCompletion(t, w, q)

	if n := len(msgr.byOp("transcript")); n != 0 {
		t.Fatalf("expected no transcript delivery, got %d", n)
	}
	sends := msgr.byOp("send")
	if len(sends) != 1 || sends[0].text != msgNoSpeech || sends[0].replyTo != 9 {
		t.Fatalf("expected no-speech reply, got %+v", sends)
	}

	// A blank transcript is still a successful job.
	snap := s.Snapshot()
	if snap.TotalProcessed != 1 || snap.TotalFailed != 0 {
		t.Errorf("unexpected stats: %+v", snap)
	}
}

func TestWorkerFailureReplies(t *testing.T) {
	tests := []struct {
		name        string
		convertErr  error
		sttErr      error
		wantMessage string
	}{
		{
			name:        "conversion failure",
			convertErr:  &audio.ConversionError{Output: "Invalid data found"},
			wantMessage: msgConversionFailed,
		},
		{
			name:        "encoder missing",
			convertErr:  audio.ErrEncoderNotFound,
			wantMessage: msgConversionFailed,
		},
		{
			name:        "authentication",
			sttErr:      fmt.Errorf("whisper: %w", stt.ErrAuthentication),
			wantMessage: msgSTTUnavailable,
		},
		{
			name:        "rate limit",
			sttErr:      fmt.Errorf("whisper: %w", stt.ErrRateLimit),
			wantMessage: msgSTTUnavailable,
		},
		{
			name:        "api error",
			sttErr:      &stt.APIError{Status: 500, Message: "boom"},
			wantMessage: msgSTTUnavailable,
		},
		{
			name:        "transport error",
			sttErr:      &stt.TransportError{Err: errors.New("connection refused")},
			wantMessage: msgSTTUnavailable,
		},
		{
			name:        "unclassified",
			sttErr:      errors.New("something else"),
			wantMessage: msgGenericError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgr := &fakeMessenger{}
			w, q, s := newTestWorker(t, Options{
				Converter:   &fakeConverter{err: tt.convertErr},
				Transcriber: &fakeTranscriber{err: tt.sttErr},
				Messenger:   msgr,
				Provider:    stt.ProviderWhisper,
			})

			enqueue(t, q, s, &queue.Job{ID: "job-1", ChatID: 1, ReplyToID: 4, Data: []byte("x"), Filename: "a.ogg"})
			runToCompletion(t, w, q)

			sends := msgr.byOp("send")
			if len(sends) != 1 {
				t.Fatalf("expected 1 error reply, got %d", len(sends))
			}
			if sends[0].text != tt.wantMessage {
				t.Errorf("expected %q, got %q", tt.wantMessage, sends[0].text)
			}
			if sends[0].replyTo != 4 {
				t.Errorf("expected reply to original message, got %+v", sends[0])
			}

			// The notice is removed on failure too.
			if n := len(msgr.byOp("delete")); n != 1 {
				t.Errorf("expected notice delete, got %d", n)
			}

			snap := s.Snapshot()
			if snap.TotalFailed != 1 || snap.TotalProcessed != 0 || snap.QueueSize != 0 {
				t.Errorf("unexpected stats: %+v", snap)
			}
		})
	}
}

func TestWorkerRecordsElevenLabsRequests(t *testing.T) {
	reqLog := &fakeRequestLog{}
	w, q, s := newTestWorker(t, Options{
		Provider:   stt.ProviderElevenLabs,
		RequestLog: reqLog,
	})

	enqueue(t, q, s, &queue.Job{
		ID: "job-1", ChatID: 1, Data: []byte("abcde"), Filename: "a.ogg",
		UserID: 777, Username: "alice",
	})
	runToCompletion(t, w, q)

	if len(reqLog.entries) != 1 || reqLog.entries[0] != "777/alice/5" {
		t.Fatalf("unexpected request log entries: %v", reqLog.entries)
	}
}

func TestWorkerSkipsRequestLogForOtherProviders(t *testing.T) {
	reqLog := &fakeRequestLog{}
	w, q, s := newTestWorker(t, Options{
		Provider:   stt.ProviderWhisper,
		RequestLog: reqLog,
	})

	enqueue(t, q, s, &queue.Job{ID: "job-1", ChatID: 1, Data: []byte("x"), Filename: "a.ogg", UserID: 1})
	runToCompletion(t, w, q)

	if len(reqLog.entries) != 0 {
		t.Fatalf("expected no request log entries, got %v", reqLog.entries)
	}
}

func TestUserMessageForWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", &audio.ConversionError{Output: "bad input"})
	if got := userMessageFor(wrapped); got != msgConversionFailed {
		t.Errorf("expected conversion message for wrapped error, got %q", got)
	}

	wrapped = fmt.Errorf("pipeline: %w", &stt.TransportError{Err: errors.New("timeout")})
	if got := userMessageFor(wrapped); got != msgSTTUnavailable {
		t.Errorf("expected unavailable message for wrapped transport error, got %q", got)
	}
}
