package ranker

import (
	"context"

	"skyrank/pkg/bluesky"
)

// Client is the subset of the Bluesky API the ranking pipeline needs
type Client interface {
	// Login authenticates with a handle and app password
	Login(ctx context.Context, handle, appPassword string) (*bluesky.Session, error)

	// Timeline fetches one page of the home timeline
	Timeline(ctx context.Context, cursor string, limit int64) (*bluesky.TimelinePage, error)

	// EngagementCounts looks up like/repost/reply counts for a post
	EngagementCounts(ctx context.Context, uri string) (*bluesky.Engagement, error)
}
