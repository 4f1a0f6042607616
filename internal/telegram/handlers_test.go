package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcaBot/internal/finance"
	"dcaBot/internal/storage"
)

// fakeSender records everything the handlers send.
type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	ch   chan struct{}
}

func newFakeSender() *fakeSender { return &fakeSender{ch: make(chan struct{}, 16)} }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	f.sent = append(f.sent, c)
	f.mu.Unlock()
	f.ch <- struct{}{}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type fakeNarrator struct {
	text string
	err  error
}

func (n fakeNarrator) Explain(context.Context, *finance.Comparison) (string, error) {
	return n.text, n.err
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := storage.OpenSQLite("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))
	return storage.NewStore(db)
}

func testHandlers(t *testing.T, narrator Narrator) (*Handlers, *fakeSender) {
	t.Helper()
	api := newFakeSender()
	h := NewHandlers(api, Deps{
		Store:     testStore(t),
		Simulator: finance.NewSimulator(finance.NewMockSource(), nil),
		Charts:    finance.NewChartRenderer(time.Minute),
		Narrator:  narrator,
	})
	return h, api
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, From: &tgbotapi.User{ID: 1}, Text: text}
}

const dcaCmd = "/dca AAPL MSFT vs SPY from=2020-01-01 to=2021-01-01 initial=1000 contrib=100"

func TestHandleDCA(t *testing.T) {
	h, api := testHandlers(t, nil)
	h.HandleMessage(message(10, dcaCmd))

	photos := api.photos()
	require.Len(t, photos, 1)
	assert.Equal(t, int64(10), photos[0].ChatID)
	assert.True(t, strings.HasPrefix(photos[0].Caption, "AAPL, MSFT • $"))
	assert.Contains(t, photos[0].Caption, " vs SPY $")

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Portfolio (AAPL, MSFT)")
	assert.Contains(t, texts[0], "prices: mock")

	runs, err := h.Store.RecentRuns(10, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"AAPL", "MSFT"}, runs[0].Tickers)
	assert.Equal(t, "SPY", runs[0].Benchmark)
	assert.Equal(t, "mock", runs[0].Source)
	assert.Equal(t, 100.0, runs[0].Contribution)
}

func TestHandleDCAX(t *testing.T) {
	h, api := testHandlers(t, fakeNarrator{text: "**What happened:** fine"})
	h.HandleMessage(message(10, strings.Replace(dcaCmd, "/dca", "/dcax@MyBot", 1)))

	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "**What happened:** fine", texts[1])
	last := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
	assert.Equal(t, "Markdown", last.ParseMode)
}

func TestHandleDCAX_Unavailable(t *testing.T) {
	h, api := testHandlers(t, nil)
	h.HandleMessage(message(10, strings.Replace(dcaCmd, "/dca", "/dcax", 1)))
	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "not configured")

	h, api = testHandlers(t, fakeNarrator{err: errors.New("quota")})
	h.HandleMessage(message(10, strings.Replace(dcaCmd, "/dca", "/dcax", 1)))
	texts = api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "Narration failed: quota", texts[1])
}

func TestHandleDCA_BadInput(t *testing.T) {
	h, api := testHandlers(t, nil)

	h.HandleMessage(message(10, "/dca AAPL initial=lots"))
	h.HandleMessage(message(10, "/dca AAPL from=2022-01-01 to=2021-01-01"))
	h.HandleMessage(message(10, "/dca AAPL vs SPY initial=NaN"))
	h.HandleMessage(message(10, "/dca AAPL vs SPY contrib=Inf"))

	texts := api.texts()
	require.Len(t, texts, 4)
	assert.True(t, strings.HasPrefix(texts[0], "Invalid command:"), texts[0])
	assert.True(t, strings.HasPrefix(texts[1], "Invalid request:"), texts[1])
	assert.True(t, strings.HasPrefix(texts[2], "Invalid command:"), texts[2])
	assert.True(t, strings.HasPrefix(texts[3], "Invalid command:"), texts[3])
	assert.Empty(t, api.photos())

	runs, err := h.Store.RecentRuns(10, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestHandleMessage_RecoversPanic(t *testing.T) {
	api := newFakeSender()
	h := NewHandlers(api, Deps{})

	require.NotPanics(t, func() { h.HandleMessage(message(10, "/dca AAPL vs SPY")) })
	assert.Equal(t, []string{"Something went wrong while handling that command."}, api.texts())
}

func TestHandleHistory(t *testing.T) {
	h, api := testHandlers(t, nil)
	h.HandleMessage(message(10, "/history"))
	assert.Equal(t, []string{"No simulations yet. Try /dca"}, api.texts())

	h.HandleMessage(message(10, dcaCmd))
	h.HandleMessage(message(10, "/history 50"))
	texts := api.texts()
	last := texts[len(texts)-1]
	assert.True(t, strings.HasPrefix(last, "Last 1 simulations"), last)
	assert.Contains(t, last, "AAPL,MSFT vs SPY • 2020-01-01..2021-01-01 monthly")

	h.Store = nil
	h.HandleMessage(message(10, "/history"))
	texts = api.texts()
	assert.Equal(t, "History is not available.", texts[len(texts)-1])
}

func TestHandleHelpAndUnknown(t *testing.T) {
	h, api := testHandlers(t, nil)
	h.HandleMessage(message(10, "hello there"))
	h.HandleMessage(message(10, "/dcaz"))
	assert.Empty(t, api.sent)

	h.HandleMessage(message(10, "/help@MyBot"))
	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "/dca [T1 T2 ...]")
	assert.Contains(t, texts[0], "vs SPY")
}

func TestWebhookHandler(t *testing.T) {
	h, api := testHandlers(t, nil)
	b := &Bot{h: h}

	body := `{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":5,"type":"private"},"from":{"id":9,"is_bot":false,"first_name":"a"},"text":"/help"}}`
	rec := httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-api.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	sent := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(5), sent.ChatID)

	rec = httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":2}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
