package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seenimoa/finmetrics/internal/config"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Yahoo! Finance: AAPL News</title>
<item>
  <title>Apple earnings beat estimates</title>
  <link>https://finance.yahoo.com/news/apple-earnings</link>
  <description>&lt;p&gt;Revenue rose &lt;b&gt;6%&lt;/b&gt;&lt;/p&gt;</description>
  <pubDate>Mon, 03 Feb 2025 14:00:00 +0000</pubDate>
</item>
<item>
  <title>Apple unveils new product</title>
  <link>https://finance.yahoo.com/news/apple-product</link>
  <pubDate>Tue, 04 Feb 2025 09:30:00 +0000</pubDate>
</item>
<item>
  <title>Older story</title>
  <link>https://finance.yahoo.com/news/older</link>
  <pubDate>Fri, 31 Jan 2025 09:30:00 +0000</pubDate>
</item>
</channel></rss>`

func TestNewsHeadlines(t *testing.T) {
	var gotSymbol string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("s")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer ts.Close()

	n := NewNews(config.YahooConfig{FeedURL: ts.URL + "/rss/2.0/headline"}, 2*time.Second)
	headlines, err := n.Headlines(context.Background(), "aapl", 2)
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if gotSymbol != "AAPL" {
		t.Errorf("feed symbol: got %q", gotSymbol)
	}
	if len(headlines) != 2 {
		t.Fatalf("headlines: got %d, want 2", len(headlines))
	}
	if headlines[0].Title != "Apple unveils new product" {
		t.Errorf("newest first: got %q", headlines[0].Title)
	}
	if headlines[1].Summary != "Revenue rose 6%" {
		t.Errorf("summary should be stripped of HTML: got %q", headlines[1].Summary)
	}
	if headlines[0].Source != "Yahoo Finance" {
		t.Errorf("Source: got %q", headlines[0].Source)
	}
}

func TestNewsHeadlinesFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	n := NewNews(config.YahooConfig{FeedURL: ts.URL}, time.Second)
	_, err := n.Headlines(context.Background(), "AAPL", 0)
	if KindOf(err) != KindFetch {
		t.Fatalf("KindOf: got %q (%v), want fetch", KindOf(err), err)
	}
}

func TestNewsHeadlinesMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer ts.Close()

	n := NewNews(config.YahooConfig{FeedURL: ts.URL}, time.Second)
	_, err := n.Headlines(context.Background(), "AAPL", 0)
	if KindOf(err) != KindParse {
		t.Fatalf("KindOf: got %q (%v), want parse", KindOf(err), err)
	}
}

func TestCleanHTML(t *testing.T) {
	if got := cleanHTML(""); got != "" {
		t.Errorf("empty: got %q", got)
	}
	if got := cleanHTML("<p>Hello <i>world</i></p>"); got != "Hello world" {
		t.Errorf("got %q", got)
	}
}
