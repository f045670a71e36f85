package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/feed"
	"github.com/romangod6/sitemapgen/internal/routes"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <path|url>",
	Short: "Check a written feed",
	Long: `Re-read a sitemap (local file or http(s) URL) and report entries whose
loc is not normalized or duplicated, whose lastmod does not parse, whose
changefreq is unknown or whose priority is outside [0, 1]. A sitemap index
is followed into its part files.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var baseURLFlag string

func init() {
	verifyCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "site base URL (default: site.base_url from the config)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	base := baseURLFlag
	if base == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		base = cfg.Site.BaseURL
	}
	norm, err := routes.NewNormalizer(base)
	if err != nil {
		return errors.WithHint(err, "pass --base-url or set site.base_url")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	problems, err := verifyFeed(cmd.Context(), client, args[0], norm, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if problems > 0 {
		return errors.Newf("%d problems found in %s", problems, args[0])
	}
	return nil
}

// verifyFeed prints every problem of the feed at location to out and
// returns how many there were.
func verifyFeed(ctx context.Context, client *http.Client, location string, norm *routes.Normalizer, out io.Writer) (int, error) {
	doc, err := feed.Open(ctx, client, location)
	if err != nil {
		return 0, err
	}

	problems := feed.Verify(doc, norm)
	for _, p := range problems {
		fmt.Fprintf(out, "%s: %s\n", location, p)
	}
	total, urls := len(problems), len(doc.URLs)

	for _, ref := range doc.Sitemaps {
		part := feed.PartLocation(location, ref.Loc)
		partDoc, err := feed.Open(ctx, client, part)
		if err != nil {
			return total, errors.Wrapf(err, "read part %s", ref.Loc)
		}
		if partDoc.Index {
			fmt.Fprintf(out, "%s: nested sitemap index\n", part)
			total++
			continue
		}
		partProblems := feed.Verify(partDoc, norm)
		for _, p := range partProblems {
			fmt.Fprintf(out, "%s: %s\n", part, p)
		}
		total += len(partProblems)
		urls += len(partDoc.URLs)
	}

	fmt.Fprintf(out, "%s: %d urls, %d sitemaps, %d problems\n", location, urls, len(doc.Sitemaps), total)
	return total, nil
}
