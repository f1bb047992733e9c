package firehose

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCounterRecordAndTop(t *testing.T) {
	counter := NewTagCounter()

	counter.Record([]string{"#go", "#bluesky"})
	counter.Record([]string{"#go"})
	counter.Record([]string{"#go", "#atproto"})
	counter.Record(nil)

	top := counter.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, TagCount{Tag: "#go", Count: 3}, top[0])
	assert.Equal(t, TagCount{Tag: "#atproto", Count: 1}, top[1], "ties break alphabetically")

	assert.Equal(t, int64(5), counter.Total())
	assert.Equal(t, 3, counter.Distinct())
}

func TestTagCounterTopLargerThanDistinct(t *testing.T) {
	counter := NewTagCounter()
	counter.Record([]string{"#only"})

	top := counter.Top(20)
	require.Len(t, top, 1)
	assert.Equal(t, "#only", top[0].Tag)
}

func TestTagCounterEmpty(t *testing.T) {
	counter := NewTagCounter()
	assert.Empty(t, counter.Top(20))
	assert.Equal(t, int64(0), counter.Total())
}

func TestTagCounterConcurrent(t *testing.T) {
	counter := NewTagCounter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counter.Record([]string{"#shared", fmt.Sprintf("#worker%d", worker)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1600), counter.Total())
	top := counter.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, TagCount{Tag: "#shared", Count: 800}, top[0])
}
