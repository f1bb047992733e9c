package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"

	"skyrank/pkg/errors"
	"skyrank/pkg/logger"
	"skyrank/pkg/ratelimit"
)

const timelineAlgorithm = "reverse-chronological"

// Client wraps an authenticated XRPC connection to a PDS. Create one
// with NewClient and call Login before any of the feed methods.
type Client struct {
	xrpc    *xrpc.Client
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// NewClient creates an unauthenticated client against the given PDS host
func NewClient(pdsHost string, limiter ratelimit.Limiter, log logger.Logger) *Client {
	return &Client{
		xrpc: &xrpc.Client{
			Client: &http.Client{Timeout: 30 * time.Second},
			Host:   pdsHost,
		},
		limiter: limiter,
		logger:  log,
	}
}

// Login exchanges a handle and app password for a session and attaches
// the session tokens to the client.
func (c *Client) Login(ctx context.Context, handle, appPassword string) (*Session, error) {
	c.logger.DebugWithFields("creating session", map[string]interface{}{
		"handle": handle,
		"pds":    c.xrpc.Host,
	})

	out, err := comatproto.ServerCreateSession(ctx, c.xrpc, &comatproto.ServerCreateSession_Input{
		Identifier: handle,
		Password:   appPassword,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAuth, "failed to create session", err)
	}

	c.xrpc.Auth = &xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}

	return &Session{
		Handle:     out.Handle,
		DID:        out.Did,
		AccessJWT:  out.AccessJwt,
		RefreshJWT: out.RefreshJwt,
	}, nil
}

// Timeline fetches one page of the authenticated user's home timeline.
// Posts whose records cannot be decoded are skipped, not fatal.
func (c *Client) Timeline(ctx context.Context, cursor string, limit int64) (*TimelinePage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	out, err := appbsky.FeedGetTimeline(ctx, c.xrpc, timelineAlgorithm, cursor, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeFetch, "failed to fetch timeline page", err)
	}

	page := &TimelinePage{}
	if out.Cursor != nil {
		page.Cursor = *out.Cursor
	}

	for _, item := range out.Feed {
		if item.Post == nil || item.Post.Record == nil {
			continue
		}

		rec, ok := item.Post.Record.Val.(*appbsky.FeedPost)
		if !ok {
			c.logger.DebugWithFields("skipping non-post record", map[string]interface{}{
				"uri": item.Post.Uri,
			})
			continue
		}

		createdAt, err := syntax.ParseDatetimeTime(rec.CreatedAt)
		if err != nil {
			c.logger.WarnWithFields("skipping post with unparseable timestamp", map[string]interface{}{
				"uri":        item.Post.Uri,
				"created_at": rec.CreatedAt,
			})
			continue
		}

		page.Posts = append(page.Posts, Post{
			URI:       item.Post.Uri,
			Text:      rec.Text,
			CreatedAt: createdAt,
		})
	}

	return page, nil
}

// EngagementCounts looks up the like, repost, and reply counts for a post
func (c *Client) EngagementCounts(ctx context.Context, uri string) (*Engagement, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	out, err := appbsky.FeedGetPostThread(ctx, c.xrpc, 0, 0, uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLookup, fmt.Sprintf("failed to fetch thread for %s", uri), err)
	}

	if out.Thread == nil || out.Thread.FeedDefs_ThreadViewPost == nil || out.Thread.FeedDefs_ThreadViewPost.Post == nil {
		return nil, errors.New(errors.ErrorTypeLookup, fmt.Sprintf("post not found: %s", uri))
	}

	post := out.Thread.FeedDefs_ThreadViewPost.Post
	return &Engagement{
		Likes:   derefCount(post.LikeCount),
		Reposts: derefCount(post.RepostCount),
		Replies: derefCount(post.ReplyCount),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrorTypeFetch, "rate limit wait interrupted", err)
	}
	return nil
}

func derefCount(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
