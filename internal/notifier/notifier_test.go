package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FactorBench/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = url
	n.BaseBackoff = time.Millisecond
	return n
}

func TestSendPostsMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetryHonoursCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	n.BaseBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.SendWithRetry(ctx, "x", 3)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFormatRunSummary(t *testing.T) {
	s := &model.RunSummary{
		RunID:  "abc",
		Method: "online",
		Start:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Splits: 48,
		Latest: []model.FactorWeight{
			{Factor: "mom_12_1", Weight: 0.7, TrainICMean: 0.03, Orientation: 1},
			{Factor: "rev_1m", Weight: 0.3, TrainICMean: -0.02, Orientation: -1},
		},
		ByCost: []model.CostSummary{
			{CostBps: 0, MeanDaily: 0.0005, VolDaily: 0.01, Sharpe: 0.79, Days: 1000},
			{CostBps: 10, MeanDaily: 0.0001, VolDaily: 0, Sharpe: math.NaN(), Days: 1000},
		},
	}
	msg := FormatRunSummary(s)
	assert.Contains(t, msg, "Splits: 48")
	assert.Contains(t, msg, "2020-01-01")
	assert.Contains(t, msg, "mom_12_1")
	assert.Contains(t, msg, "0.790")
	assert.Contains(t, msg, "n/a")
	assert.Contains(t, msg, "<pre>")
}

func TestFormatFailureEscapes(t *testing.T) {
	msg := FormatFailure("r1", errors.New("bad <value>"))
	assert.Contains(t, msg, "bad &lt;value&gt;")
}

func TestStartPollingAnswersKnownChat(t *testing.T) {
	var served atomic.Int32
	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if served.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
{"update_id":7,"message":{"text":"/status","chat":{"id":42}}},
{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var handled []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "ack " + cmd
		})
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "ack /status", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
	assert.Equal(t, []string{"/status"}, handled)
}
