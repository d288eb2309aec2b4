package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"
)

// messageBudget is the per-message character budget for transcript chunks,
// leaving headroom under Telegram's 4096 limit for part markers and escaping.
const messageBudget = 4000

// Sender is the outbound side of the bot, used by the queue consumer.
type Sender struct {
	bot *tele.Bot
}

// Send posts a plain text message, optionally as a reply.
func (s *Sender) Send(chatID int64, replyTo int, text string) error {
	_, err := s.bot.Send(&tele.Chat{ID: chatID}, text, sendOptions(chatID, replyTo))
	return err
}

// Edit replaces the text of an existing message.
func (s *Sender) Edit(chatID int64, messageID int, text string) error {
	_, err := s.bot.Edit(storedMessage(chatID, messageID), text)
	return err
}

// Delete removes a message.
func (s *Sender) Delete(chatID int64, messageID int) error {
	return s.bot.Delete(storedMessage(chatID, messageID))
}

// DeliverTranscript sends the transcript, splitting it into parts when it
// exceeds the message budget. The first part carries the transcription header
// and replies to the original submission. Each part is sent as escaped
// MarkdownV2 with a plain text fallback if Telegram rejects the formatting.
func (s *Sender) DeliverTranscript(chatID int64, replyTo int, transcript string) error {
	chunks := Split(transcript, messageBudget)

	for i, chunk := range chunks {
		body := chunk
		if len(chunks) > 1 {
			body = fmt.Sprintf("(Part %d of %d)\n\n%s", i+1, len(chunks), chunk)
		}

		md := EscapeMarkdownV2(body)
		plain := body
		var opts *tele.SendOptions
		if i == 0 {
			md = "📝 *Transcription:*\n\n" + md
			plain = "📝 Transcription:\n\n" + plain
			opts = sendOptions(chatID, replyTo)
		} else {
			opts = sendOptions(chatID, 0)
		}

		mdOpts := *opts
		mdOpts.ParseMode = tele.ModeMarkdownV2
		if _, err := s.bot.Send(&tele.Chat{ID: chatID}, md, &mdOpts); err != nil {
			if _, err := s.bot.Send(&tele.Chat{ID: chatID}, plain, opts); err != nil {
				return fmt.Errorf("failed to send transcript part %d of %d: %w", i+1, len(chunks), err)
			}
		}
	}
	return nil
}

func sendOptions(chatID int64, replyTo int) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if replyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: replyTo, Chat: &tele.Chat{ID: chatID}}
	}
	return opts
}

func storedMessage(chatID int64, messageID int) *tele.Message {
	return &tele.Message{ID: messageID, Chat: &tele.Chat{ID: chatID}}
}

var markdownV2Escaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes every character MarkdownV2 treats as markup.
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}

// Split breaks text into chunks of at most limit characters. It prefers
// breaking at line boundaries, falls back to word boundaries for oversized
// lines, and hard-cuts words longer than the limit. Text within the limit is
// returned as a single chunk untouched.
func Split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur = nil
			curLen = 0
		}
	}

	addLine := func(line string) {
		n := utf8.RuneCountInString(line)
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, line)
		curLen += n
	}

	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(line) <= limit {
			addLine(line)
			continue
		}
		for _, piece := range splitWords(line, limit) {
			addLine(piece)
		}
	}
	flush()

	return chunks
}

// splitWords packs the words of one oversized line into limit-sized pieces.
func splitWords(line string, limit int) []string {
	var pieces []string
	var cur []string
	curLen := 0

	emit := func() {
		if len(cur) > 0 {
			pieces = append(pieces, strings.Join(cur, " "))
			cur = nil
			curLen = 0
		}
	}

	for _, word := range strings.Fields(line) {
		n := utf8.RuneCountInString(word)

		if n > limit {
			emit()
			r := []rune(word)
			for len(r) > limit {
				pieces = append(pieces, string(r[:limit]))
				r = r[limit:]
			}
			if len(r) > 0 {
				cur = []string{string(r)}
				curLen = len(r)
			}
			continue
		}

		if curLen > 0 && curLen+1+n > limit {
			emit()
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, word)
		curLen += n
	}
	emit()

	return pieces
}
