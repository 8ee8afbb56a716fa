// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/jukebox/internal/listing"
)

// StubCollection is an in-memory [listing.Collection] that records every call.
//
// Items holds the whole collection; Retrieve slices out the requested page. Set RetrieveFunc to take full
// control of responses.
type StubCollection[E listing.Entity] struct {
	Items        []E
	RetrieveErr  error
	DeleteErr    error
	RetrieveFunc func(ctx context.Context, q listing.Query) (*listing.Page[E], error)

	mu       sync.Mutex
	queries  []listing.Query
	deletes  []int64
	sequence []string
}

func (s *StubCollection[E]) Retrieve(ctx context.Context, q listing.Query) (*listing.Page[E], error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.sequence = append(s.sequence, "retrieve")
	fn, items, err := s.RetrieveFunc, s.Items, s.RetrieveErr
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	start := min(q.Page*q.Size, len(items))
	end := min(start+q.Size, len(items))
	return &listing.Page[E]{
		Items: append([]E(nil), items[start:end]...),
		Total: len(items),
		Links: links(q.Page, q.Size, len(items)),
	}, nil
}

// links mirrors the Link header the backend sends for page of size over total items.
func links(page, size, total int) map[string]int {
	if size <= 0 {
		return nil
	}
	last := max((total+size-1)/size-1, 0)
	l := map[string]int{"first": 0, "last": last}
	if page < last {
		l["next"] = page + 1
	}
	if page > 0 {
		l["prev"] = page - 1
	}
	return l
}

func (s *StubCollection[E]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, id)
	s.sequence = append(s.sequence, "delete")
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	kept := s.Items[:0:0]
	for _, item := range s.Items {
		if item.Identity() != id {
			kept = append(kept, item)
		}
	}
	s.Items = kept
	return nil
}

// Queries returns every query passed to Retrieve.
func (s *StubCollection[E]) Queries() []listing.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]listing.Query(nil), s.queries...)
}

// RetrieveCount returns how many times Retrieve was called.
func (s *StubCollection[E]) RetrieveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// Deletes returns every id passed to Delete.
func (s *StubCollection[E]) Deletes() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.deletes...)
}

// Calls returns the call order as "retrieve" / "delete" entries.
func (s *StubCollection[E]) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sequence...)
}

// RecordingNotifier is a [listing.Notifier] that keeps every notification.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []listing.Notification
}

func (r *RecordingNotifier) Notify(n listing.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns the notifications received so far.
func (r *RecordingNotifier) Sent() []listing.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]listing.Notification(nil), r.sent...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
