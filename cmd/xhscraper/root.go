package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xhscraper",
	Short: "A watermark-free media downloader for RedNote (Xiaohongshu) posts",
	Long: `xhscraper extracts media from RedNote (Xiaohongshu) post pages and
downloads it without watermarks.

Features:
  - Tolerant extraction of the embedded page state across site variants
  - Watermark-free image URLs via CDN rewriting
  - Live Photo support (static image + motion video pairs)
  - Encoded video stream extraction (H.264/H.265)
  - Best-effort downloads: one failed asset never aborts the batch
  - Randomized browser identity per request`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
