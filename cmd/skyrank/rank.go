package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"skyrank/pkg/auth"
	"skyrank/pkg/bluesky"
	"skyrank/pkg/config"
	"skyrank/pkg/logger"
	"skyrank/pkg/ranker"
	"skyrank/pkg/ratelimit"
	"skyrank/pkg/ui"
)

var (
	// Rank command flags
	rankHandle   string
	rankAccount  string
	rankPDSHost  string
	rankHours    int
	rankMaxPosts int
	rankTopN     int
	rankTimeout  int
	rankRate     int
	rankMetric   string
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank recent timeline posts by engagement",
	Long: `Page through your home timeline, keep posts from the last few days,
look up each post's like, repost, and reply counts, and print the top
posts for each metric.

The run is bounded three ways: it stops after --max-posts posts have
been accepted, when the timeline runs out, or when --timeout seconds
have elapsed (whichever comes first). A timeout keeps the posts
collected so far; a failed page fetch discards the run.`,
	Example: `  # Top 5 posts from the last 72 hours, all metrics
  skyrank rank

  # Only likes, over the last day
  skyrank rank --metric likes --hours 24

  # A deeper scan
  skyrank rank --max-posts 500 --top 10 --timeout 600`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runRank()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVar(&rankHandle, "handle", "", "Bluesky handle (overrides stored credentials)")
	rankCmd.Flags().StringVarP(&rankAccount, "account", "a", "", "use specific stored account")
	rankCmd.Flags().StringVar(&rankPDSHost, "pds-host", "", "PDS host to talk to")
	rankCmd.Flags().IntVar(&rankHours, "hours", 72, "time window in hours")
	rankCmd.Flags().IntVar(&rankMaxPosts, "max-posts", 100, "maximum number of posts to process")
	rankCmd.Flags().IntVar(&rankTopN, "top", 5, "number of posts to show per metric")
	rankCmd.Flags().IntVar(&rankTimeout, "timeout", 300, "run timeout in seconds")
	rankCmd.Flags().IntVar(&rankRate, "rate-limit", 300, "requests per minute")
	rankCmd.Flags().StringVar(&rankMetric, "metric", "all", "metric to rank by (likes, reposts, replies, all)")
}

func runRank() {
	metrics, ok := selectMetrics(rankMetric)
	if !ok {
		ui.PrintError("Unknown metric", rankMetric)
		os.Exit(1)
	}

	flags := make(map[string]interface{})
	if rankHandle != "" {
		flags["handle"] = rankHandle
	}
	if rankPDSHost != "" {
		flags["pds-host"] = rankPDSHost
	}
	if rankHours != 72 {
		flags["hours"] = rankHours
	}
	if rankMaxPosts != 100 {
		flags["max-posts"] = rankMaxPosts
	}
	if rankTopN != 5 {
		flags["top"] = rankTopN
	}
	if rankTimeout != 300 {
		flags["timeout"] = rankTimeout
	}
	if rankRate != 300 {
		flags["rate-limit"] = rankRate
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", versionString()).Info("skyrank starting")

	handle, password := resolveCredentials(cfg, rankAccount, log)

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	client := bluesky.NewClient(cfg.Bluesky.PDSHost, limiter, log)

	r := ranker.New(client, ranker.Options{
		WindowHours: cfg.Rank.WindowHours,
		MaxPosts:    cfg.Rank.MaxPosts,
		TopN:        cfg.Rank.TopN,
		Timeout:     cfg.Rank.Timeout,
	}, log)

	results := r.Run(context.Background(), handle, password)

	ranker.Report(os.Stdout, results, metrics, cfg.Rank.TopN, cfg.Rank.WindowHours)
}

// resolveCredentials finds the handle and app password to run with.
// Order: explicit flag handle with config password, a named stored
// account, config/env values, then the default stored account. Missing
// credentials are not an error here: the ranker reports them.
func resolveCredentials(cfg *config.Config, accountName string, log logger.Logger) (string, string) {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential manager unavailable")
		return cfg.Bluesky.Handle, cfg.Bluesky.Password
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'skyrank auth list' to see stored accounts")
			os.Exit(1)
		}
		log.WithField("account", account.Handle).Info("using stored credentials")
		return account.Handle, account.AppPassword
	}

	if cfg.Bluesky.Handle != "" && cfg.Bluesky.Password != "" {
		return cfg.Bluesky.Handle, cfg.Bluesky.Password
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return cfg.Bluesky.Handle, cfg.Bluesky.Password
	}
	log.WithField("account", account.Handle).Info("using stored credentials")
	return account.Handle, account.AppPassword
}

func selectMetrics(name string) ([]ranker.Metric, bool) {
	switch name {
	case "all", "":
		return ranker.Metrics, true
	case "likes":
		return []ranker.Metric{ranker.MetricLikes}, true
	case "reposts":
		return []ranker.Metric{ranker.MetricReposts}, true
	case "replies":
		return []ranker.Metric{ranker.MetricReplies}, true
	}
	return nil, false
}
