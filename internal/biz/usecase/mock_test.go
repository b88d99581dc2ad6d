package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

// Mock implementations

type sentFile struct {
	channelID string
	text      string
	file      *domain.File
}

type mockMessageRepo struct {
	mu sync.Mutex

	nextID    int
	sentText  []string
	sentFiles []sentFile
	deleted   []string
	fetched   []string

	fetchData  []byte
	fetchErr   error
	fetchPanic bool
	sendErr    error
	deleteErr  error
}

func (m *mockMessageRepo) newID() string {
	m.nextID++
	return fmt.Sprintf("msg-%d", m.nextID)
}

func (m *mockMessageRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sentText = append(m.sentText, text)
	return m.newID(), nil
}

func (m *mockMessageRepo) SendFile(ctx context.Context, channelID, text string, file *domain.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sentFiles = append(m.sentFiles, sentFile{channelID: channelID, text: text, file: file})
	return m.newID(), nil
}

func (m *mockMessageRepo) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockMessageRepo) FetchAttachment(ctx context.Context, att *domain.Attachment) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchPanic {
		panic("boom")
	}
	m.fetched = append(m.fetched, att.Source())
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.fetchData, nil
}

type mockResponder struct {
	mu           sync.Mutex
	acknowledged int
	replies      []string
	replyErr     error
}

func (m *mockResponder) Acknowledge(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acknowledged++
	return nil
}

func (m *mockResponder) Reply(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return m.replyErr
}

type mockHistoryRepo struct {
	entries []*domain.HistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	return m.entries, nil
}

func (m *mockHistoryRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (m *mockHistoryRepo) Close() error {
	return nil
}

// fakeClock hands out timers that only fire when told to

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

// FireAll runs every timer that has not fired or been stopped
func (c *fakeClock) FireAll() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

var errNotFound = errors.New("404 Not Found: Unknown Message")
