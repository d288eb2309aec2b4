package telegram

import (
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mtpython/tg-speech-to-text/internal/auth"
	"github.com/mtpython/tg-speech-to-text/internal/queue"
	"github.com/mtpython/tg-speech-to-text/internal/system"
)

const (
	msgPasswordPrompt = "🔐 Please enter the password to use this bot."
	msgAccessGranted  = "✅ Access granted! Send me a voice message, audio file, or video and I will transcribe it."
	msgTextHint       = "Send me a voice message, audio file, video, or video note and I will transcribe it."

	msgWelcome = "👋 Welcome! Send me a voice message, audio file, video, or video note and I will transcribe it for you.\n\n" +
		"Commands:\n" +
		"/help - usage details\n" +
		"/status - queue status"

	msgHelp = "📖 How to use this bot:\n\n" +
		"• Send a voice message, video note, audio file (.mp3, .m4a, .ogg), or video file\n" +
		"• Audio and video can also be sent as documents\n" +
		"• The file is queued and transcribed in order of arrival\n" +
		"• Long transcripts arrive in multiple parts\n\n" +
		"Commands:\n" +
		"/status - show queue status\n" +
		"/queue - same as /status"
)

// Config carries the bot token and the shared access password.
type Config struct {
	Token    string
	Password string
}

// Recorder receives submission-side measurements. A nil Recorder disables
// metrics.
type Recorder interface {
	RecordJobQueued()
	SetQueueSize(n int)
}

// Bot wraps the Telegram connection and wires incoming updates into the job
// queue. Outbound delivery lives on Sender so the queue consumer can send
// without knowing about update handling.
type Bot struct {
	bot      *tele.Bot
	password string
	queue    *queue.Queue
	stats    *queue.Statistics
	auth     *auth.Store
	sender   *Sender
	recorder Recorder
	logger   *slog.Logger
}

// New connects to Telegram and registers all handlers. It does not start
// polling; call Start for that.
func New(cfg Config, q *queue.Queue, stats *queue.Statistics, authStore *auth.Store, recorder Recorder, logger *slog.Logger) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b := &Bot{
		bot:      tb,
		password: cfg.Password,
		queue:    q,
		stats:    stats,
		auth:     authStore,
		sender:   &Sender{bot: tb},
		recorder: recorder,
		logger:   logger,
	}
	b.registerHandlers()

	logger.Info("telegram bot created", slog.String("username", tb.Me.Username))
	return b, nil
}

// Sender returns the outbound side of the bot.
func (b *Bot) Sender() *Sender {
	return b.sender
}

// Start begins long polling. It blocks until Stop is called.
func (b *Bot) Start() {
	b.logger.Info("telegram bot polling started")
	b.bot.Start()
}

// Stop terminates polling.
func (b *Bot) Stop() {
	b.bot.Stop()
	b.logger.Info("telegram bot polling stopped")
}

// authorized reports whether the sender may use the bot. An empty password
// disables the gate entirely.
func (b *Bot) authorized(userID int64) bool {
	return b.password == "" || b.auth.Contains(userID)
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		if !b.authorized(c.Sender().ID) {
			return c.Send(msgPasswordPrompt)
		}
		return c.Send(msgWelcome)
	})

	b.bot.Handle("/help", func(c tele.Context) error {
		if !b.authorized(c.Sender().ID) {
			return c.Send(msgPasswordPrompt)
		}
		return c.Send(msgHelp)
	})

	statusHandler := func(c tele.Context) error {
		if !b.authorized(c.Sender().ID) {
			return nil
		}
		text := queue.RenderStatus(b.stats.Snapshot())
		if cpuPct, err := system.CPUUsage(); err == nil {
			if memPct, merr := system.MemoryUsage(); merr == nil {
				text += fmt.Sprintf("\n🖥 CPU: %.1f%% | Memory: %.1f%%", cpuPct, memPct)
			}
		}
		return c.Send(text)
	}
	b.bot.Handle("/status", statusHandler)
	b.bot.Handle("/queue", statusHandler)

	b.bot.Handle(tele.OnText, b.handleText)

	for _, event := range []string{
		tele.OnVoice,
		tele.OnAudio,
		tele.OnVideo,
		tele.OnVideoNote,
		tele.OnDocument,
	} {
		b.bot.Handle(event, b.handleMedia)
	}
}

// handleText is the password gate. Messages from unknown users that do not
// match the password are dropped without a reply.
func (b *Bot) handleText(c tele.Context) error {
	userID := c.Sender().ID

	if b.authorized(userID) {
		return c.Send(msgTextHint)
	}

	if c.Text() == b.password {
		if err := b.auth.Authorize(userID); err != nil {
			b.logger.Error("failed to authorize user", slog.Int64("user_id", userID), slog.Any("error", err))
			return c.Send("❌ An error occurred. Please try again.")
		}
		return c.Send(msgAccessGranted)
	}

	b.logger.Debug("ignoring message from unauthorized user", slog.Int64("user_id", userID))
	return nil
}
