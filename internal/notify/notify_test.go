package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"jotter/internal/schedule"
	logx "jotter/pkg/logx"
)

type fakeBot struct {
	mu    sync.Mutex
	fails int
	sent  []string
	opts  []*tele.SendOptions
	to    []tele.Recipient
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("telegram: bad gateway")
	}
	f.sent = append(f.sent, what.(string))
	f.to = append(f.to, to)
	if len(opts) > 0 {
		f.opts = append(f.opts, opts[0].(*tele.SendOptions))
	}
	return &tele.Message{ID: len(f.sent)}, nil
}

func message(t *testing.T, reason Reason) Message {
	t.Helper()
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	e := schedule.Entry{
		Start:       schedule.NewTimestamp(start),
		End:         schedule.NewTimestamp(start.Add(time.Hour)),
		Task:        "写报告",
		Status:      schedule.StatusUnfinished,
		Description: "outline\ndraft",
	}
	return Message{Reason: reason, Item: schedule.Indexed{ID: 3, Entry: e}, Now: start.Add(-10 * time.Minute)}
}

func TestMessageText(t *testing.T) {
	t.Parallel()
	txt := message(t, ReasonStarting).Text()
	for _, want := range []string{"#3", "写报告", "from now", "2025-01-10 09:00 → 2025-01-10 10:00", "outline\ndraft"} {
		if !strings.Contains(txt, want) {
			t.Fatalf("missing %q in %q", want, txt)
		}
	}
	m := message(t, ReasonOverdue)
	m.Now = m.Item.Entry.End.Time.Add(2 * time.Hour)
	if txt := m.Text(); !strings.Contains(txt, "ago") || !strings.Contains(txt, schedule.StatusUnfinished) {
		t.Fatalf("overdue text %q", txt)
	}
}

func TestTelegramSendsToThread(t *testing.T) {
	t.Parallel()
	bot := &fakeBot{fails: 1}
	tg := newTelegram(bot, TelegramConfig{ChatID: -100, ThreadID: 7, RatePerSec: 50}, logx.Nop())
	if err := tg.Notify(context.Background(), message(t, ReasonStarting)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent=%d", len(bot.sent))
	}
	if bot.opts[0].ThreadID != 7 || !bot.opts[0].DisableWebPagePreview {
		t.Fatalf("opts=%+v", bot.opts[0])
	}
	if bot.to[0].Recipient() != "-100" {
		t.Fatalf("recipient=%s", bot.to[0].Recipient())
	}
}

func TestTelegramGivesUp(t *testing.T) {
	t.Parallel()
	bot := &fakeBot{fails: 10}
	tg := newTelegram(bot, TelegramConfig{ChatID: 1, RatePerSec: 50, RetryMax: 1}, logx.Nop())
	if err := tg.Notify(context.Background(), message(t, ReasonOverdue)); err == nil {
		t.Fatalf("expected error")
	}
	if bot.fails != 8 {
		t.Fatalf("attempts=%d", 10-bot.fails)
	}
}

func TestNewTelegramValidates(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegram(TelegramConfig{ChatID: 1}, logx.Nop()); err == nil {
		t.Fatalf("expected token error")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "1:x"}, logx.Nop()); err == nil {
		t.Fatalf("expected chat error")
	}
}

type errSink struct{ name string }

func (e errSink) Name() string                          { return e.name }
func (e errSink) Notify(context.Context, Message) error { return errors.New("down") }

func TestFanoutJoinsErrors(t *testing.T) {
	t.Parallel()
	f := Fanout{LogSink{Log: logx.Nop()}, errSink{name: "a"}, errSink{name: "b"}}
	err := f.Notify(context.Background(), message(t, ReasonStarting))
	if err == nil || !strings.Contains(err.Error(), "a: down") || !strings.Contains(err.Error(), "b: down") {
		t.Fatalf("err=%v", err)
	}
	if f.Name() != "log+a+b" {
		t.Fatalf("name=%q", f.Name())
	}
}

func TestLogSinkWritesFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	svc, log, err := logx.New(logx.Config{Level: "warn", Console: true, Out: &buf})
	if err != nil {
		t.Fatalf("logx: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	m := message(t, ReasonStarting)
	if err := (LogSink{Log: log}).Notify(context.Background(), m); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"schedule reminder", "reason=" + string(ReasonStarting), "checked_at="} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q: %s", want, out)
		}
	}
}
