package hisab_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/warp/smart-hisab/hisab"
	"github.com/warp/smart-hisab/hisab/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Info(string) {}

type testBook struct {
	*hisab.Book
	mem    *store.Memory
	notify *recordingNotifier
	logs   *logtest.Hook
	now    time.Time
}

// advance moves the book's clock forward.
func (b *testBook) advance(d time.Duration) {
	b.now = b.now.Add(d)
}

// newTestBook builds a book over a memory store seeded with raw JSON
// documents. The clock stands still unless the test advances it, so ids
// otherwise only differ by the collision bump.
func newTestBook(t *testing.T, seed map[string]string) *testBook {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tb := &testBook{
		mem:    store.NewMemoryFrom(seed),
		notify: &recordingNotifier{},
		logs:   hook,
		now:    testNow,
	}
	tb.Book = hisab.NewBook(tb.mem,
		hisab.WithLogger(logger),
		hisab.WithNotifier(tb.notify),
		hisab.WithClock(func() time.Time { return tb.now }),
	)
	return tb
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decEqual(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("expected %s, got %s %v", want, got.String(), msgAndArgs)
	}
}
