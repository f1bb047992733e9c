package ranker

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportRankedPosts(t *testing.T) {
	results := Results{
		MetricLikes: []RankedPost{
			{Text: "first", URI: "at://1", Count: 42},
			{Text: "second", URI: "at://2", Count: 7},
		},
	}

	var buf bytes.Buffer
	Report(&buf, results, []Metric{MetricLikes}, 5, 72)
	out := buf.String()

	assert.Contains(t, out, "Top 5 Most-Liked Posts on Bluesky (Last 72 Hours):")
	assert.Contains(t, out, "1. Likes: 42\n   Text: first\n   URI: at://1")
	assert.Contains(t, out, "2. Likes: 7\n   Text: second\n   URI: at://2")
	assert.Contains(t, out, strings.Repeat("-", 50))
}

func TestReportEmptyMetric(t *testing.T) {
	results := Results{
		MetricReposts: []RankedPost{},
	}

	var buf bytes.Buffer
	Report(&buf, results, []Metric{MetricReposts}, 5, 72)
	out := buf.String()

	assert.Contains(t, out, "Top 5 Most-Reposted Posts on Bluesky (Last 72 Hours):")
	assert.Contains(t, out, "No posts processed for reposts.")
	assert.NotContains(t, out, "URI:")
}

func TestReportAllMetrics(t *testing.T) {
	results := Results{
		MetricLikes:   []RankedPost{{Text: "a", URI: "at://1", Count: 1}},
		MetricReposts: []RankedPost{{Text: "a", URI: "at://1", Count: 2}},
		MetricReplies: []RankedPost{{Text: "a", URI: "at://1", Count: 3}},
	}

	var buf bytes.Buffer
	Report(&buf, results, Metrics, 5, 48)
	out := buf.String()

	assert.Contains(t, out, "Most-Liked Posts on Bluesky (Last 48 Hours)")
	assert.Contains(t, out, "Most-Reposted Posts on Bluesky (Last 48 Hours)")
	assert.Contains(t, out, "Most-Replied Posts on Bluesky (Last 48 Hours)")
	assert.Contains(t, out, "Likes: 1")
	assert.Contains(t, out, "Reposts: 2")
	assert.Contains(t, out, "Replies: 3")
}
