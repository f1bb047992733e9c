package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"

	"skyrank/pkg/ui"
)

var (
	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skyrank",
	Short: "Rank and stream Bluesky posts from your terminal",
	Long: `skyrank is a command-line tool for pulling signals out of Bluesky.

It can page through your home timeline and rank recent posts by likes,
reposts, or replies, or subscribe to the network firehose to count
hashtags and watch tagged posts in real time.

Credentials are app passwords stored in the system keychain, an
encrypted file, or the BLUESKY_HANDLE / BLUESKY_PASSWORD environment
variables.`,
	Version: versioninfo.Short(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetNoColor(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .skyrank.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and results")

	rootCmd.SetVersionTemplate(`skyrank {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skyrank %s\n", versioninfo.Short())
			fmt.Printf("Go Version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
}

func versionString() string {
	return versioninfo.Short()
}
