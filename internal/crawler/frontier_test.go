package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/ragcrawl/internal/model"
)

func TestFrontierFIFO(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	if _, ok := f.TryPop(); ok {
		t.Fatal("expected empty frontier")
	}

	f.Push(model.FrontierEntry{URL: "a", Depth: 0})
	f.Push(model.FrontierEntry{URL: "b", Depth: 1})
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}

	for _, want := range []string{"a", "b"} {
		e, ok := f.TryPop()
		if !ok || e.URL != want {
			t.Errorf("TryPop() = %v, %v; want %q", e, ok, want)
		}
	}
	if _, ok := f.TryPop(); ok {
		t.Error("expected empty frontier after draining")
	}
}

func TestShardedSeenSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewShardedSeenSet()

	added, _ := s.Add(ctx, "https://example.com")
	if !added {
		t.Error("expected first Add to report absent")
	}
	added, _ = s.Add(ctx, "https://example.com")
	if added {
		t.Error("expected second Add to report present")
	}
	if ok, _ := s.Contains(ctx, "https://example.com"); !ok {
		t.Error("expected Contains to be true")
	}
	if ok, _ := s.Contains(ctx, "https://other.com"); ok {
		t.Error("expected Contains to be false")
	}
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestShardedSeenSetConcurrentAdd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewShardedSeenSet()
	const goroutines = 16
	const urls = 200

	var wins atomic.Int64
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range urls {
				if added, _ := s.Add(ctx, fmt.Sprintf("https://example.com/%d", i)); added {
					wins.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if wins.Load() != urls {
		t.Errorf("expected exactly %d successful inserts, got %d", urls, wins.Load())
	}
	members, _ := s.Members(ctx)
	if len(members) != urls {
		t.Errorf("Members() has %d entries, want %d", len(members), urls)
	}
}
