package ranker

import (
	"context"
	"sort"
	"time"

	"skyrank/pkg/bluesky"
	"skyrank/pkg/logger"
)

// Metric identifies which engagement counter a ranking is computed over
type Metric string

const (
	MetricLikes   Metric = "likes"
	MetricReposts Metric = "reposts"
	MetricReplies Metric = "replies"
)

// Metrics lists every ranking the pipeline produces, in display order
var Metrics = []Metric{MetricLikes, MetricReposts, MetricReplies}

const (
	maxPageSize    = 100
	truncateLength = 50
	ellipsis       = "..."
)

// RankedPost is one entry in a ranking
type RankedPost struct {
	Text  string
	URI   string
	Count int64
}

// Results maps each metric to its ranked posts, best first. Every metric
// key is always present; a failed or empty run yields empty slices.
type Results map[Metric][]RankedPost

// Options bound a single run
type Options struct {
	WindowHours int
	MaxPosts    int
	TopN        int
	Timeout     time.Duration
}

// Ranker drives the bounded fetch-and-rank pipeline. It pages through
// the home timeline until max_posts items have been accepted, the
// timeline is exhausted, or the wall-clock timeout expires, then ranks
// the accepted posts by each engagement metric.
type Ranker struct {
	client Client
	opts   Options
	logger logger.Logger

	// now is swappable for deadline tests
	now func() time.Time
}

// New creates a Ranker for the given client and options
func New(client Client, opts Options, log logger.Logger) *Ranker {
	return &Ranker{
		client: client,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

// Run executes one full pipeline pass and returns the per-metric
// rankings. It never returns an error: configuration, authentication,
// and page-fetch failures are logged and yield empty results, while a
// timeout ends the run gracefully with whatever was accepted so far.
func (r *Ranker) Run(ctx context.Context, handle, appPassword string) Results {
	if handle == "" || appPassword == "" {
		r.logger.Error("missing credentials, set BLUESKY_HANDLE and BLUESKY_PASSWORD")
		return emptyResults()
	}

	if _, err := r.client.Login(ctx, handle, appPassword); err != nil {
		r.logger.ErrorWithFields("login failed", map[string]interface{}{
			"handle": handle,
			"error":  err.Error(),
		})
		return emptyResults()
	}

	start := r.now()
	deadline := start.Add(r.opts.Timeout)
	windowStart := start.Add(-time.Duration(r.opts.WindowHours) * time.Hour)

	accepted := r.collect(ctx, deadline, windowStart)

	r.logger.InfoWithFields("run complete", map[string]interface{}{
		"accepted": len(accepted),
		"elapsed":  r.now().Sub(start).String(),
	})

	return rank(accepted, r.opts.TopN)
}

// annotated pairs a post with its engagement counts
type annotated struct {
	post   bluesky.Post
	counts bluesky.Engagement
}

func (r *Ranker) collect(ctx context.Context, deadline, windowStart time.Time) []annotated {
	var accepted []annotated
	cursor := ""

	for len(accepted) < r.opts.MaxPosts && r.now().Before(deadline) {
		pageSize := r.opts.MaxPosts - len(accepted)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		page, err := r.client.Timeline(ctx, cursor, int64(pageSize))
		if err != nil {
			// Page failures abort the whole run with no partial results.
			// Per-item failures below are handled differently.
			r.logger.ErrorWithFields("timeline fetch failed, discarding run", map[string]interface{}{
				"cursor": cursor,
				"error":  err.Error(),
			})
			return nil
		}

		if len(page.Posts) == 0 {
			r.logger.Debug("timeline exhausted")
			break
		}

		timedOut := false
		for _, post := range page.Posts {
			if !r.now().Before(deadline) {
				r.logger.WarnWithFields("timeout reached mid-page", map[string]interface{}{
					"accepted": len(accepted),
				})
				timedOut = true
				break
			}

			if post.CreatedAt.Before(windowStart) {
				r.logger.DebugWithFields("post outside window", map[string]interface{}{
					"uri":        post.URI,
					"created_at": post.CreatedAt.Format(time.RFC3339),
				})
				continue
			}

			if post.Text == "" || post.URI == "" {
				continue
			}

			counts, err := r.client.EngagementCounts(ctx, post.URI)
			if err != nil {
				r.logger.WarnWithFields("engagement lookup failed, zero-filling counts", map[string]interface{}{
					"uri":   post.URI,
					"error": err.Error(),
				})
				counts = &bluesky.Engagement{}
			}

			post.Text = truncate(post.Text)
			accepted = append(accepted, annotated{post: post, counts: *counts})

			if len(accepted) >= r.opts.MaxPosts {
				break
			}
		}

		if timedOut || page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	return accepted
}

func rank(accepted []annotated, topN int) Results {
	results := emptyResults()

	for _, metric := range Metrics {
		ranked := make([]RankedPost, 0, len(accepted))
		for _, a := range accepted {
			ranked = append(ranked, RankedPost{
				Text:  a.post.Text,
				URI:   a.post.URI,
				Count: countFor(metric, a.counts),
			})
		}

		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Count > ranked[j].Count
		})

		if len(ranked) > topN {
			ranked = ranked[:topN]
		}
		results[metric] = ranked
	}

	return results
}

func countFor(metric Metric, counts bluesky.Engagement) int64 {
	switch metric {
	case MetricLikes:
		return counts.Likes
	case MetricReposts:
		return counts.Reposts
	case MetricReplies:
		return counts.Replies
	}
	return 0
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= truncateLength {
		return text
	}
	return string(runes[:truncateLength]) + ellipsis
}

func emptyResults() Results {
	results := make(Results, len(Metrics))
	for _, metric := range Metrics {
		results[metric] = []RankedPost{}
	}
	return results
}
