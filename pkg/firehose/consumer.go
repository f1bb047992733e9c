package firehose

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/events"
	"github.com/bluesky-social/indigo/events/schedulers/parallel"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/repo"
	"github.com/bluesky-social/indigo/repomgr"
	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"

	"skyrank/pkg/logger"
	"skyrank/pkg/retry"
)

// PostHandler is invoked for every newly created post record on the
// firehose. Handlers may be called concurrently.
type PostHandler func(ctx context.Context, did syntax.DID, rkey syntax.RecordKey, post *appbsky.FeedPost)

// Consumer subscribes to a relay's repo event stream and feeds created
// post records to a handler. It reconnects with exponential backoff
// until the context is cancelled.
type Consumer struct {
	relayHost string
	workers   int
	handler   PostHandler
	logger    logger.Logger
}

// NewConsumer creates a firehose consumer against the given relay host
func NewConsumer(relayHost string, workers int, handler PostHandler, log logger.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		relayHost: relayHost,
		workers:   workers,
		handler:   handler,
		logger:    log,
	}
}

// Run consumes the firehose until the context is cancelled. Stream and
// dial failures trigger a reconnect rather than a return.
func (c *Consumer) Run(ctx context.Context) error {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 0
	cfg.Context = ctx
	cfg.Logger = c.logger
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.WarnWithFields("firehose disconnected, reconnecting", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
	}

	return retry.Do(func() error {
		return c.stream(ctx)
	}, cfg)
}

func (c *Consumer) stream(ctx context.Context) error {
	u, err := url.Parse(c.relayHost)
	if err != nil {
		return fmt.Errorf("invalid relay host %q: %w", c.relayHost, err)
	}
	u.Path = "xrpc/com.atproto.sync.subscribeRepos"

	c.logger.InfoWithFields("subscribing to repo event stream", map[string]interface{}{
		"relay": c.relayHost,
	})

	con, _, err := websocket.DefaultDialer.Dial(u.String(), http.Header{
		"User-Agent": []string{fmt.Sprintf("skyrank/%s", versioninfo.Short())},
	})
	if err != nil {
		return fmt.Errorf("subscribing to firehose failed (dialing): %w", err)
	}

	rsc := &events.RepoStreamCallbacks{
		RepoCommit: func(evt *comatproto.SyncSubscribeRepos_Commit) error {
			return c.handleCommit(ctx, evt)
		},
	}

	scheduler := parallel.NewScheduler(
		c.workers,
		1000,
		c.relayHost,
		rsc.EventHandler,
	)

	// The stream plumbing logs through slog; keep it quiet below warnings
	streamLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	return events.HandleRepoStream(ctx, con, scheduler, streamLogger)
}

func (c *Consumer) handleCommit(ctx context.Context, evt *comatproto.SyncSubscribeRepos_Commit) error {
	log := c.logger.WithFields(map[string]interface{}{
		"did": evt.Repo,
		"seq": evt.Seq,
	})

	if evt.TooBig {
		log.Debug("skipping oversized commit event")
		return nil
	}

	did, err := syntax.ParseDID(evt.Repo)
	if err != nil {
		log.ErrorWithFields("bad DID syntax in event", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	rr, err := repo.ReadRepoFromCar(ctx, bytes.NewReader(evt.Blocks))
	if err != nil {
		log.ErrorWithFields("failed to read repo from CAR blocks", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	for _, op := range evt.Ops {
		if repomgr.EventKind(op.Action) != repomgr.EvtKindCreateRecord {
			continue
		}

		collection, rkey, err := syntax.ParseRepoPath(op.Path)
		if err != nil {
			log.ErrorWithFields("invalid path in repo op", map[string]interface{}{
				"path": op.Path,
			})
			return nil
		}
		if collection != "app.bsky.feed.post" {
			continue
		}

		rc, recordCBOR, err := rr.GetRecordBytes(ctx, op.Path)
		if err != nil {
			log.ErrorWithFields("reading record from event blocks", map[string]interface{}{
				"path":  op.Path,
				"error": err.Error(),
			})
			continue
		}
		if op.Cid == nil || lexutil.LexLink(rc) != *op.Cid {
			log.ErrorWithFields("commit op CID does not match record block", map[string]interface{}{
				"path": op.Path,
			})
			continue
		}

		var post appbsky.FeedPost
		if err := post.UnmarshalCBOR(bytes.NewReader(*recordCBOR)); err != nil {
			log.ErrorWithFields("failed to parse post record", map[string]interface{}{
				"path":  op.Path,
				"error": err.Error(),
			})
			continue
		}

		c.handler(ctx, did, rkey, &post)
	}

	return nil
}
