package ranker

import (
	"fmt"
	"io"
	"strings"
)

var metricHeadings = map[Metric]string{
	MetricLikes:   "Most-Liked",
	MetricReposts: "Most-Reposted",
	MetricReplies: "Most-Replied",
}

var metricLabels = map[Metric]string{
	MetricLikes:   "Likes",
	MetricReposts: "Reposts",
	MetricReplies: "Replies",
}

// Report writes the rankings for the given metrics in display order
func Report(w io.Writer, results Results, metrics []Metric, topN, windowHours int) {
	for i, metric := range metrics {
		if i > 0 {
			fmt.Fprintln(w)
		}
		reportMetric(w, metric, results[metric], topN, windowHours)
	}
}

func reportMetric(w io.Writer, metric Metric, posts []RankedPost, topN, windowHours int) {
	separator := strings.Repeat("-", 50)

	fmt.Fprintf(w, "Top %d %s Posts on Bluesky (Last %d Hours):\n", topN, metricHeadings[metric], windowHours)
	fmt.Fprintln(w, separator)

	if len(posts) == 0 {
		fmt.Fprintf(w, "No posts processed for %s.\n", metric)
		return
	}

	for i, post := range posts {
		fmt.Fprintf(w, "%d. %s: %d\n", i+1, metricLabels[metric], post.Count)
		fmt.Fprintf(w, "   Text: %s\n", post.Text)
		fmt.Fprintf(w, "   URI: %s\n", post.URI)
		fmt.Fprintln(w, separator)
	}
}
