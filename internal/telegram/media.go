package telegram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
	"github.com/mtpython/tg-speech-to-text/internal/queue"
)

const (
	msgUnsupportedFormat = "❌ Unsupported audio format. Please send voice messages, video notes, audio files (.mp3, .m4a, .ogg), or video files."
	msgDownloadFailed    = "❌ Failed to download the file. Please try again."
	msgQueueClosed       = "❌ The service is shutting down. Please try again later."
)

// handleMedia is the producer path: download the submission, announce the
// queue position, and hand the job to the worker.
func (b *Bot) handleMedia(c tele.Context) error {
	sender := c.Sender()
	if !b.authorized(sender.ID) {
		b.logger.Debug("ignoring media from unauthorized user", slog.Int64("user_id", sender.ID))
		return nil
	}

	m := c.Message()
	file, filename, err := mediaFile(m)
	if err != nil {
		var unsupported *audio.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			b.logger.Info("rejected unsupported submission",
				slog.Int64("user_id", sender.ID), slog.String("kind", unsupported.Kind))
			return c.Reply(msgUnsupportedFormat)
		}
		return err
	}

	data, err := b.download(file)
	if err != nil {
		b.logger.Error("failed to download media",
			slog.Int64("user_id", sender.ID),
			slog.String("filename", filename),
			slog.Any("error", err),
		)
		return c.Reply(msgDownloadFailed)
	}

	position := b.stats.IncrementQueued()

	notice, err := b.bot.Send(c.Chat(), fmt.Sprintf("📥 Added to queue (position: %d)\nFile: %s", position, filename))
	if err != nil {
		b.stats.RollbackQueued()
		return fmt.Errorf("failed to send queue notice: %w", err)
	}

	job := &queue.Job{
		ID:        uuid.NewString(),
		ChatID:    c.Chat().ID,
		NoticeID:  notice.ID,
		ReplyToID: m.ID,
		Data:      data,
		Filename:  filename,
		UserInfo:  describeUser(sender),
		UserID:    sender.ID,
		Username:  sender.Username,
	}

	if _, err := b.queue.Enqueue(job); err != nil {
		b.stats.RollbackQueued()
		_ = b.bot.Delete(notice)
		return c.Reply(msgQueueClosed)
	}

	if b.recorder != nil {
		b.recorder.RecordJobQueued()
		b.recorder.SetQueueSize(b.queue.Len())
	}

	b.logger.Info("job queued",
		slog.String("job_id", job.ID),
		slog.String("filename", filename),
		slog.Int("bytes", len(data)),
		slog.Uint64("position", position),
		slog.String("user", job.UserInfo),
	)
	return nil
}

// mediaFile picks the downloadable file out of the message and names it so
// the converter gets an extension hint. Documents are accepted only when
// Telegram tagged them with an audio or video MIME type.
func mediaFile(m *tele.Message) (*tele.File, string, error) {
	switch {
	case m.Voice != nil:
		return &m.Voice.File, "voice.ogg", nil
	case m.VideoNote != nil:
		return &m.VideoNote.File, "video_note.mp4", nil
	case m.Audio != nil:
		name := m.Audio.FileName
		if name == "" {
			name = "audio.mp3"
		}
		return &m.Audio.File, name, nil
	case m.Video != nil:
		name := m.Video.FileName
		if name == "" {
			name = "video.mp4"
		}
		return &m.Video.File, name, nil
	case m.Document != nil:
		mime := m.Document.MIME
		if !strings.HasPrefix(mime, "audio/") && !strings.HasPrefix(mime, "video/") {
			return nil, "", &audio.UnsupportedFormatError{Kind: mime}
		}
		name := m.Document.FileName
		if name == "" {
			name = "document.bin"
		}
		return &m.Document.File, name, nil
	default:
		return nil, "", &audio.UnsupportedFormatError{Kind: "message"}
	}
}

func (b *Bot) download(file *tele.File) ([]byte, error) {
	rc, err := b.bot.File(file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// describeUser builds the human-readable identity recorded on the job.
func describeUser(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = "unknown"
	}
	if u.Username != "" {
		return fmt.Sprintf("%s (@%s, id %d)", name, u.Username, u.ID)
	}
	return fmt.Sprintf("%s (id %d)", name, u.ID)
}
