package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xhscraper/pkg/config"
	"xhscraper/pkg/errors"
	"xhscraper/pkg/logger"
	"xhscraper/pkg/scraper"
)

var (
	// Parse command flags
	outputDir  string
	concurrent int
	rateLimit  int
	timeoutSec int
	cookie     string
	noDownload bool
	skipMotion bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "Parse a post page and download its media",
	Long: `Parse a RedNote (Xiaohongshu) post URL, extract its media and download
everything to the output directory.

With --no-download the extracted record is printed as JSON and nothing is
fetched beyond the page itself.`,
	Example: `  # Parse a post and download its media
  xhscraper parse https://www.xiaohongshu.com/explore/6549f1b2000000001e03abcd

  # Only print the extracted record
  xhscraper parse https://www.xiaohongshu.com/explore/6549f1b2000000001e03abcd --no-download

  # Custom output directory and parallel downloads
  xhscraper parse <url> --output ./media --concurrent 3

  # Pass a session cookie for pages that need one
  xhscraper parse <url> --cookie "web_session=..."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	parseCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	parseCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute")
	parseCmd.Flags().IntVar(&timeoutSec, "timeout", 0, "download timeout in seconds")
	parseCmd.Flags().StringVar(&cookie, "cookie", "", "session cookie")
	parseCmd.Flags().BoolVar(&noDownload, "no-download", false, "print the extracted record without downloading")
	parseCmd.Flags().BoolVar(&skipMotion, "skip-motion", false, "skip live-photo motion components and video streams")
}

func runParse(url string) error {
	flags := map[string]interface{}{
		"output":     outputDir,
		"concurrent": concurrent,
		"rate-limit": rateLimit,
		"cookie":     cookie,
		"log-level":  logLevel,
	}
	if timeoutSec > 0 {
		flags["timeout"] = time.Duration(timeoutSec) * time.Second
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	if skipMotion {
		cfg.Download.SkipMotion = true
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return err
	}
	logger.SetLogger(log)

	s := scraper.New(cfg)
	ctx := context.Background()

	if noDownload {
		content, _, err := s.ParseURL(ctx, url)
		if err != nil {
			return describeParseError(err)
		}
		out, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	content, manifest, err := s.Run(ctx, url)
	if err != nil {
		return describeParseError(err)
	}

	fmt.Printf("Downloaded %d/%d assets for %q\n", manifest.SucceededCount, manifest.TotalCount, content.Title)
	if manifest.CoverPath != "" {
		fmt.Printf("Cover: %s\n", manifest.CoverPath)
	}
	if manifest.SucceededCount == 0 && manifest.TotalCount > 0 {
		return fmt.Errorf("every download failed (%d assets)", manifest.TotalCount)
	}
	return nil
}

// describeParseError keeps the not-found conditions readable on the CLI
func describeParseError(err error) error {
	if errors.IsNotFound(err) {
		return fmt.Errorf("nothing to extract: %w", err)
	}
	return err
}
