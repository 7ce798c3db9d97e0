// Package testutil holds shared test doubles.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/massmedia0301/instakoo-place/internal/interfaces"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
)

// DummyLogger satisfies interfaces.Logger and drops everything.
type DummyLogger struct{}

func (d *DummyLogger) Debug(msg string, fields ...interfaces.Field) {}
func (d *DummyLogger) Info(msg string, fields ...interfaces.Field)  {}
func (d *DummyLogger) Warn(msg string, fields ...interfaces.Field)  {}
func (d *DummyLogger) Error(msg string, fields ...interfaces.Field) {}
func (d *DummyLogger) With(fields ...interfaces.Field) interfaces.Logger {
	return d
}

// CaptureLogger records messages for assertions.
type CaptureLogger struct {
	mu      sync.Mutex
	Entries []CapturedEntry
}

type CapturedEntry struct {
	Level  string
	Msg    string
	Fields []interfaces.Field
}

func (c *CaptureLogger) record(level, msg string, fields []interfaces.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = append(c.Entries, CapturedEntry{Level: level, Msg: msg, Fields: fields})
}

func (c *CaptureLogger) Debug(msg string, fields ...interfaces.Field) { c.record("debug", msg, fields) }
func (c *CaptureLogger) Info(msg string, fields ...interfaces.Field)  { c.record("info", msg, fields) }
func (c *CaptureLogger) Warn(msg string, fields ...interfaces.Field)  { c.record("warn", msg, fields) }
func (c *CaptureLogger) Error(msg string, fields ...interfaces.Field) { c.record("error", msg, fields) }
func (c *CaptureLogger) With(fields ...interfaces.Field) interfaces.Logger {
	return c
}

// Has reports whether a message with the given level and msg was logged.
func (c *CaptureLogger) Has(level, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.Entries {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

// FakeListingScraper returns canned signals and counts invocations.
type FakeListingScraper struct {
	Signals *scraper.ListingSignals
	Err     error

	// Block makes Scrape wait for ctx cancellation before returning,
	// simulating a page that never settles. Teardown, when set, runs on the
	// way out so tests can observe guaranteed cleanup.
	Block    bool
	Teardown func()

	calls int64
}

func (f *FakeListingScraper) Scrape(ctx context.Context, url string) (*scraper.ListingSignals, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.Teardown != nil {
		defer f.Teardown()
	}
	if f.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Signals, nil
}

// Calls returns how many times Scrape ran.
func (f *FakeListingScraper) Calls() int {
	return int(atomic.LoadInt64(&f.calls))
}

// FakeProfileScraper returns canned profile signals.
type FakeProfileScraper struct {
	Signals *scraper.ProfileSignals
	Err     error

	calls int64
}

func (f *FakeProfileScraper) Scrape(ctx context.Context, handle string) (*scraper.ProfileSignals, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Signals, nil
}

func (f *FakeProfileScraper) Calls() int {
	return int(atomic.LoadInt64(&f.calls))
}
