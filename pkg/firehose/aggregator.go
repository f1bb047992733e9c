package firehose

import (
	"sort"
	"sync"
)

// TagCount is one hashtag and how many times it has been seen
type TagCount struct {
	Tag   string
	Count int64
}

// TagCounter accumulates hashtag counts from the event stream. The
// parallel scheduler delivers commits from multiple goroutines, so all
// access goes through the mutex.
type TagCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	total  int64
}

// NewTagCounter creates an empty counter
func NewTagCounter() *TagCounter {
	return &TagCounter{counts: make(map[string]int64)}
}

// Record adds one occurrence for each given tag
func (c *TagCounter) Record(tags []string) {
	if len(tags) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		c.counts[tag]++
		c.total++
	}
}

// Top returns the n most frequent tags, most frequent first. Ties are
// broken alphabetically so output is deterministic.
func (c *TagCounter) Top(n int) []TagCount {
	c.mu.Lock()
	snapshot := make([]TagCount, 0, len(c.counts))
	for tag, count := range c.counts {
		snapshot = append(snapshot, TagCount{Tag: tag, Count: count})
	}
	c.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Count != snapshot[j].Count {
			return snapshot[i].Count > snapshot[j].Count
		}
		return snapshot[i].Tag < snapshot[j].Tag
	})

	if len(snapshot) > n {
		snapshot = snapshot[:n]
	}
	return snapshot
}

// Total returns the number of tag occurrences recorded so far
func (c *TagCounter) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Distinct returns the number of distinct tags seen so far
func (c *TagCounter) Distinct() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}
