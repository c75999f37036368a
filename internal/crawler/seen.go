package crawler

import (
	"context"
	"hash/fnv"
	"sync"
)

// SeenSet records every URL ever admitted to the frontier.
//
// Add is the crawler's only deduplication primitive: it must insert and
// report "was absent" as one atomic step, so that two workers finding
// the same link concurrently cannot both enqueue it.
type SeenSet interface {
	// Add inserts url and reports whether it was absent before.
	Add(ctx context.Context, url string) (bool, error)
	// Contains reports whether url has been added.
	Contains(ctx context.Context, url string) (bool, error)
	// Members returns every added URL in no particular order.
	Members(ctx context.Context) ([]string, error)
	// Len returns the number of added URLs.
	Len(ctx context.Context) (int, error)
}

const defaultShards = 32

// ShardedSeenSet is the in-process SeenSet. URLs are spread over
// mutex-guarded shards by hash so concurrent workers rarely contend.
type ShardedSeenSet struct {
	shards []seenShard
}

type seenShard struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewShardedSeenSet creates an empty set.
func NewShardedSeenSet() *ShardedSeenSet {
	s := &ShardedSeenSet{shards: make([]seenShard, defaultShards)}
	for i := range s.shards {
		s.shards[i].urls = make(map[string]struct{})
	}
	return s
}

func (s *ShardedSeenSet) shard(url string) *seenShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url)) //nolint:errcheck // hash.Hash never returns an error
	return &s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Add implements SeenSet.
func (s *ShardedSeenSet) Add(_ context.Context, url string) (bool, error) {
	sh := s.shard(url)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.urls[url]; ok {
		return false, nil
	}
	sh.urls[url] = struct{}{}
	return true, nil
}

// Contains implements SeenSet.
func (s *ShardedSeenSet) Contains(_ context.Context, url string) (bool, error) {
	sh := s.shard(url)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.urls[url]
	return ok, nil
}

// Members implements SeenSet.
func (s *ShardedSeenSet) Members(_ context.Context) ([]string, error) {
	var urls []string
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for u := range sh.urls {
			urls = append(urls, u)
		}
		sh.mu.Unlock()
	}
	return urls, nil
}

// Len implements SeenSet.
func (s *ShardedSeenSet) Len(_ context.Context) (int, error) {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.urls)
		sh.mu.Unlock()
	}
	return n, nil
}
