package datasource

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/infra"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

const newsSourceName = "Yahoo Finance"

// News reads per-ticker headlines from the Yahoo Finance RSS feed.
type News struct {
	feedURL string
	client  *infra.Client
	parser  *gofeed.Parser
}

// NewNews creates a headline source from the yahoo config section.
func NewNews(cfg config.YahooConfig, timeout time.Duration) *News {
	return &News{
		feedURL: cfg.FeedURL,
		client:  infra.NewClient(timeout, ""),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *News) Name() string { return newsSourceName }

// Headlines returns up to limit headlines for ticker, newest first.
// A limit of zero or less returns every item in the feed.
func (n *News) Headlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	symbol := utils.NormalizeTicker(ticker)

	q := url.Values{}
	q.Set("s", symbol)
	q.Set("region", "US")
	q.Set("lang", "en-US")
	feedURL := n.feedURL + "?" + q.Encode()

	body, err := n.client.Get(ctx, feedURL, map[string]string{
		"Accept": "application/rss+xml, application/xml",
	})
	if err != nil {
		return nil, &FetchError{Ticker: symbol, URL: feedURL, Err: err}
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w: %v", symbol, ErrMalformedResponse, err)
	}

	headlines := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := models.Headline{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  newsSourceName,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}

	slices.SortStableFunc(headlines, func(a, b models.Headline) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	if limit > 0 && len(headlines) > limit {
		headlines = headlines[:limit]
	}
	return headlines, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
