package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/spf13/cobra"

	"skyrank/pkg/bluesky"
	"skyrank/pkg/config"
	"skyrank/pkg/firehose"
	"skyrank/pkg/logger"
	"skyrank/pkg/ui"
)

var (
	// Posts command flags
	postsRelayHost string
	postsWorkers   int
	postsTag       string
)

// postsCmd represents the posts command
var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Stream hashtagged posts from the network firehose",
	Long: `Subscribe to the relay firehose and print every newly created post
that contains a hashtag, with the author's handle resolved from their
DID. Posts without hashtags are skipped.

The stream runs until interrupted and reconnects automatically on
connection loss. No credentials are needed: the firehose is public.`,
	Example: `  # Watch all hashtagged posts
  skyrank posts

  # Only posts mentioning a specific tag
  skyrank posts --tag golang`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runPosts()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)

	postsCmd.Flags().StringVar(&postsRelayHost, "relay-host", "", "relay host to subscribe to")
	postsCmd.Flags().IntVar(&postsWorkers, "workers", 4, "parallel event workers")
	postsCmd.Flags().StringVar(&postsTag, "tag", "", "only show posts containing this hashtag")
}

func runPosts() {
	flags := make(map[string]interface{})
	if postsRelayHost != "" {
		flags["relay-host"] = postsRelayHost
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if postsWorkers > 0 {
		cfg.Firehose.Workers = postsWorkers
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	wantTag := strings.ToLower(strings.TrimPrefix(postsTag, "#"))
	resolver := bluesky.NewResolver(log)

	// Workers deliver posts concurrently; serialize the printed blocks
	var printMu sync.Mutex

	consumer := firehose.NewConsumer(cfg.Firehose.RelayHost, cfg.Firehose.Workers,
		func(ctx context.Context, did syntax.DID, rkey syntax.RecordKey, post *appbsky.FeedPost) {
			tags := firehose.ExtractHashtags(post.Text, false)
			if len(tags) == 0 {
				return
			}
			if wantTag != "" && !containsTag(tags, wantTag) {
				return
			}

			author := resolver.HandleForDID(ctx, did.String())

			printMu.Lock()
			defer printMu.Unlock()
			fmt.Printf("Author: %s\n", author)
			fmt.Printf("Post: %s\n", post.Text)
			fmt.Printf("Hashtags: %s\n\n", strings.Join(tags, ", "))
		}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("firehose consumer stopped")
		os.Exit(1)
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.ToLower(strings.TrimPrefix(tag, "#")) == want {
			return true
		}
	}
	return false
}
