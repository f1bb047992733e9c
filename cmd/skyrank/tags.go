package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/spf13/cobra"

	"skyrank/pkg/config"
	"skyrank/pkg/firehose"
	"skyrank/pkg/logger"
	"skyrank/pkg/ui"
)

var (
	// Tags command flags
	tagsRelayHost string
	tagsInterval  int
	tagsTopN      int
	tagsWorkers   int
)

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Count hashtags across the network firehose",
	Long: `Subscribe to the relay firehose and count every hashtag in newly
created posts, printing the running top tags at a fixed interval.

Hashtags are folded to lowercase before counting. The stream runs until
interrupted and reconnects automatically on connection loss. No
credentials are needed: the firehose is public.`,
	Example: `  # Count hashtags, printing the top 20 every 10 seconds
  skyrank tags

  # A faster cadence against a different relay
  skyrank tags --interval 5 --relay-host wss://relay.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runTags()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	tagsCmd.Flags().StringVar(&tagsRelayHost, "relay-host", "", "relay host to subscribe to")
	tagsCmd.Flags().IntVar(&tagsInterval, "interval", 10, "seconds between top-tag reports")
	tagsCmd.Flags().IntVar(&tagsTopN, "top", 20, "number of tags to show per report")
	tagsCmd.Flags().IntVar(&tagsWorkers, "workers", 4, "parallel event workers")
}

func runTags() {
	flags := make(map[string]interface{})
	if tagsRelayHost != "" {
		flags["relay-host"] = tagsRelayHost
	}
	if tagsInterval != 10 {
		flags["interval"] = tagsInterval
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if tagsTopN > 0 {
		cfg.Firehose.TopTags = tagsTopN
	}
	if tagsWorkers > 0 {
		cfg.Firehose.Workers = tagsWorkers
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	counter := firehose.NewTagCounter()
	consumer := firehose.NewConsumer(cfg.Firehose.RelayHost, cfg.Firehose.Workers,
		func(ctx context.Context, did syntax.DID, rkey syntax.RecordKey, post *appbsky.FeedPost) {
			counter.Record(firehose.ExtractHashtags(post.Text, true))
		}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.Firehose.PrintInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				printTopTags(counter, cfg.Firehose.TopTags)
			}
		}
	}()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("firehose consumer stopped")
		os.Exit(1)
	}

	// Final report on shutdown
	printTopTags(counter, cfg.Firehose.TopTags)
}

func printTopTags(counter *firehose.TagCounter, n int) {
	fmt.Printf("Top %d hashtags at %s:\n", n, time.Now().Format(time.ANSIC))
	for _, tc := range counter.Top(n) {
		fmt.Printf("%s: %d\n", tc.Tag, tc.Count)
	}
	fmt.Println("----------------------------------------")
}
