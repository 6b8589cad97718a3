package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	logx "jotter/pkg/logx"
)

type TelegramConfig struct {
	Token      string
	ChatID     int64
	ThreadID   int
	RatePerSec int // default 1
	RetryMax   int // default 2
}

// sender is the part of *tele.Bot we use.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram sends reminders to one chat (and optional forum thread).
type Telegram struct {
	bot      sender
	chat     *tele.Chat
	threadID int
	limiter  *rate.Limiter
	retryMax int
	log      logx.Logger
}

// NewTelegram creates an offline bot: it only sends and never polls.
func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: true})
	if err != nil {
		return nil, err
	}
	return newTelegram(b, cfg, log), nil
}

func newTelegram(bot sender, cfg TelegramConfig, log logx.Logger) *Telegram {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	retry := cfg.RetryMax
	if retry <= 0 {
		retry = 2
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Telegram{
		bot:      bot,
		chat:     &tele.Chat{ID: cfg.ChatID},
		threadID: cfg.ThreadID,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		retryMax: retry,
		log:      log,
	}
}

func (*Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, m Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	opt := &tele.SendOptions{ThreadID: t.threadID, DisableWebPagePreview: true}
	text := m.Text()

	var last error
	for i := 0; i <= t.retryMax; i++ {
		_, err := t.bot.Send(t.chat, text, opt)
		if err == nil {
			return nil
		}
		last = err
		if i == t.retryMax {
			break
		}
		delay := time.Duration(200+100*i) * time.Millisecond
		t.log.Debug("telegram send retry scheduled",
			logx.Int64("chat_id", t.chat.ID), logx.Int("attempt", i+2), logx.Duration("delay", delay), logx.Err(err))
		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			tmr.Stop()
			return ctx.Err()
		case <-tmr.C:
		}
	}
	t.log.Warn("telegram send failed", logx.Int64("chat_id", t.chat.ID), logx.Int("thread_id", t.threadID), logx.Err(last))
	return last
}
