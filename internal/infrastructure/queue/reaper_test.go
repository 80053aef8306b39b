package queue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore records releases and signals each one on a channel so tests
// can wait without sleeping.
type fakeStore struct {
	mu       sync.Mutex
	released []string
	fail     map[string]bool
	done     chan string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fail: make(map[string]bool),
		done: make(chan string, 16),
	}
}

func (f *fakeStore) Store(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStore) Release(_ context.Context, ref string) error {
	defer func() { f.done <- ref }()
	if f.fail[ref] {
		return errors.New("disk error")
	}
	f.mu.Lock()
	f.released = append(f.released, ref)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) releasedRefs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func waitFor(t *testing.T, store *fakeStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-store.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for release %d of %d", i+1, n)
		}
	}
}

func TestReaper_ReleasesAssets(t *testing.T) {
	store := newFakeStore()
	r := NewReaper(2, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue("uploads/a.jpg")
	r.Enqueue("uploads/b.jpg")
	waitFor(t, store, 2)

	refs := store.releasedRefs()
	if len(refs) != 2 {
		t.Fatalf("expected 2 releases, got %v", refs)
	}
}

// A failed release is swallowed: the worker logs, counts and moves on.
func TestReaper_FailureDoesNotStopWorker(t *testing.T) {
	store := newFakeStore()
	store.fail["uploads/bad.jpg"] = true
	r := NewReaper(1, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue("uploads/bad.jpg")
	r.Enqueue("uploads/good.jpg")
	waitFor(t, store, 2)

	refs := store.releasedRefs()
	if len(refs) != 1 || refs[0] != "uploads/good.jpg" {
		t.Fatalf("worker did not survive the failure: %v", refs)
	}
}

func TestReaper_EmptyRefIgnored(t *testing.T) {
	store := newFakeStore()
	r := NewReaper(1, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue("")
	r.Enqueue("uploads/real.jpg")
	waitFor(t, store, 1)

	refs := store.releasedRefs()
	if len(refs) != 1 || refs[0] != "uploads/real.jpg" {
		t.Fatalf("expected only the real reference, got %v", refs)
	}
}

// The same reference always lands on the same worker, so releases for one
// asset stay ordered.
func TestReaper_ShardingIsStable(t *testing.T) {
	r := NewReaper(4, newFakeStore(), zerolog.Nop())

	first := r.shardIndex("uploads/a.jpg")
	for i := 0; i < 10; i++ {
		if got := r.shardIndex("uploads/a.jpg"); got != first {
			t.Fatalf("shard index changed: %d then %d", first, got)
		}
	}
}

func TestReaper_StopsOnContextCancel(t *testing.T) {
	store := newFakeStore()
	r := NewReaper(1, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	r.Enqueue("uploads/a.jpg")
	waitFor(t, store, 1)
	cancel()

	// Give the worker a moment to observe cancellation, then verify new
	// work is no longer picked up.
	time.Sleep(50 * time.Millisecond)
	r.Enqueue("uploads/after-cancel.jpg")
	select {
	case <-store.done:
		t.Fatalf("worker still running after cancel")
	case <-time.After(100 * time.Millisecond):
	}
}
