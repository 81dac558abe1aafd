// CLAUDE:SUMMARY Budget-constrained relevance-guided site crawler: scored frontier, deny patterns, page/byte/time budgets.
// Package spider performs a bounded, relevance-guided crawl of one
// candidate host.
//
// The frontier is a priority list: each discovered same-host link gets
// a relevance score from URL keywords, anchor text, and path depth, and
// the highest-scored unvisited URL is fetched next. The crawl stops at
// the page budget, the byte budget, the time budget, or an empty
// frontier, whichever comes first, and always returns whatever pages it
// collected.
package spider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hazyhaar/prospect/extract"
	"github.com/hazyhaar/prospect/leads/internal/fetch"
	"github.com/hazyhaar/prospect/leads/internal/urlx"
)

// Page is one successfully crawled page.
type Page struct {
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Text        string  `json:"text"`
	Markdown    string  `json:"markdown,omitempty"` // link-preserving rendering, best effort
	Bytes       int     `json:"bytes"`
	Relevance   float64 `json:"relevance"` // frontier score at fetch time
}

// Result aggregates one crawl run.
type Result struct {
	Host            string        `json:"host"`
	Pages           []Page        `json:"pages"`
	PagesFetched    int           `json:"pages_fetched"`
	QueuedRemaining int           `json:"queued_remaining"`
	TotalBytes      int64         `json:"total_bytes"`
	Duration        time.Duration `json:"duration"`
}

// Text concatenates all page text for signal extraction.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Markdown concatenates the link-preserving renderings. Contacts that
// exist only in href attributes (mailto:, tel:) show up here but not
// in Text.
func (r *Result) Markdown() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Markdown != "" {
			parts = append(parts, p.Markdown)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Options bound and guide one crawl run.
type Options struct {
	MaxPages     int           // default 8
	ByteBudget   int64         // total raw bytes across pages. Default: 2 MiB.
	PerPageBytes int64         // raw byte cap per page. Default: 256 KiB.
	Timeout      time.Duration // per-request. Default: 10s.
	MaxDuration  time.Duration // whole run. Default: 60s.
	// Keywords extend the built-in link vocabulary with the caller's
	// domain terms ("packaging", "corrugated").
	Keywords []string
	// Delay is the politeness pause between fetches to the host.
	// Default: 700ms.
	Delay  time.Duration
	Logger *slog.Logger

	// Fetch overrides the HTTP transport, mainly for tests.
	Fetch func(ctx context.Context, url string) (*fetch.Result, error)

	now func() time.Time
}

func (o *Options) defaults() {
	if o.MaxPages <= 0 {
		o.MaxPages = 8
	}
	if o.ByteBudget <= 0 {
		o.ByteBudget = 2 * 1024 * 1024
	}
	if o.PerPageBytes <= 0 {
		o.PerPageBytes = 256 * 1024
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 60 * time.Second
	}
	if o.Delay <= 0 {
		o.Delay = 700 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Fetch == nil {
		f := fetch.New(fetch.Config{Timeout: o.Timeout, MaxBytes: o.PerPageBytes})
		o.Fetch = f.Fetch
	}
	if o.now == nil {
		o.now = time.Now
	}
}

// seedPaths are high-value pages tried on every host, in addition to
// the homepage.
var seedPaths = []string{
	"/products",
	"/services",
	"/industries",
	"/about",
	"/capabilities",
	"/contact",
}

const seedPriority = 1.0

// denyPattern filters URLs that never carry lead signal.
var denyPattern = regexp.MustCompile(`(?i)(privacy|terms|legal|cookie|login|sign-?in|sign-?up|register|cart|checkout|account|wp-admin|/tag/|/feed|\.(pdf|jpe?g|png|gif|svg|webp|css|js|zip|mp4|ico|xml))`)

// visit states; terminal states are never re-entered within a run.
type visitState int

const (
	stateQueued visitState = iota
	stateFetched
	stateSkipped
	stateFailed
)

type frontierItem struct {
	url   string
	score float64
	seq   int // insertion order, the tie-break under stable sort
}

// Crawl walks host under opts and always returns a Result, even an
// empty one. Fetch and parse errors are swallowed per URL.
func Crawl(ctx context.Context, host string, opts Options) *Result {
	opts.defaults()
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	logger := opts.Logger.With("component", "spider", "host", host)
	start := opts.now()

	res := &Result{Host: host}
	if host == "" {
		return res
	}

	base := &url.URL{Scheme: "https", Host: host}
	limiter := rate.NewLimiter(rate.Every(opts.Delay), 1)
	visited := make(map[string]visitState)

	var frontier []frontierItem
	seq := 0
	push := func(raw string, score float64) {
		norm, err := urlx.Normalize(raw)
		if err != nil {
			return
		}
		if _, seen := visited[norm]; seen {
			return
		}
		visited[norm] = stateQueued
		frontier = append(frontier, frontierItem{url: norm, score: score, seq: seq})
		seq++
	}

	push(base.String()+"/", seedPriority)
	for _, p := range seedPaths {
		push(base.String()+p, seedPriority)
	}

	vocab := linkVocabulary(opts.Keywords)

	for len(frontier) > 0 {
		if res.PagesFetched >= opts.MaxPages || res.TotalBytes >= opts.ByteBudget {
			break
		}
		if opts.now().Sub(start) >= opts.MaxDuration {
			logger.Warn("crawl time budget exhausted", "fetched", res.PagesFetched)
			break
		}
		if ctx.Err() != nil {
			break
		}

		// Highest score first; equal scores keep insertion order.
		sort.SliceStable(frontier, func(i, j int) bool {
			if frontier[i].score != frontier[j].score {
				return frontier[i].score > frontier[j].score
			}
			return frontier[i].seq < frontier[j].seq
		})
		item := frontier[0]
		frontier = frontier[1:]

		if denyPattern.MatchString(item.url) || !urlx.SameHost(item.url, host) {
			visited[item.url] = stateSkipped
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		fr, err := opts.Fetch(fetchCtx, item.url)
		cancel()
		if err != nil || !fr.IsHTML() {
			visited[item.url] = stateFailed
			if err != nil {
				logger.Warn("page fetch failed", "url", item.url, "error", err)
			}
			continue
		}

		body := fr.Body
		if int64(len(body)) > opts.PerPageBytes {
			body = body[:opts.PerPageBytes]
		}
		if remaining := opts.ByteBudget - res.TotalBytes; int64(len(body)) > remaining {
			body = body[:remaining]
		}

		page, err := extract.Parse(body, extract.Options{})
		if err != nil {
			visited[item.url] = stateFailed
			continue
		}
		visited[item.url] = stateFetched

		md, err := extract.Markdown(body)
		if err != nil {
			md = ""
		}
		res.Pages = append(res.Pages, Page{
			URL:         item.url,
			Title:       page.Title,
			Description: page.Description,
			Text:        page.Text,
			Markdown:    md,
			Bytes:       len(body),
			Relevance:   item.score,
		})
		res.PagesFetched++
		res.TotalBytes += int64(len(body))

		for _, link := range page.Links {
			abs, ok := resolveLink(item.url, link.Href)
			if !ok || !urlx.SameHost(abs, host) || denyPattern.MatchString(abs) {
				continue
			}
			if score := scoreLink(abs, link.Text, vocab); score >= minLinkScore {
				push(abs, score)
			}
		}
	}

	res.QueuedRemaining = len(frontier)
	res.Duration = opts.now().Sub(start)
	logger.Info("crawl done",
		"pages", res.PagesFetched,
		"bytes", res.TotalBytes,
		"queued_remaining", res.QueuedRemaining,
		"duration_ms", res.Duration.Milliseconds())
	return res
}

// resolveLink resolves href against the page URL and drops non-http
// targets (mailto, javascript, fragments).
func resolveLink(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}

const (
	linkBaseScore = 0.20
	urlHitWeight  = 0.30
	textHitWeight = 0.25
	depthPenalty  = 0.08
	minLinkScore  = 0.10
	maxScoredHits = 3
)

// baseVocabulary matches pages likely to describe what the company
// does, sells, and where.
var baseVocabulary = []string{
	"product", "service", "solution", "industr", "about",
	"capabilit", "contact", "location", "distribut", "wholesale",
	"supplier", "manufactur", "catalog", "partner", "career",
}

func linkVocabulary(keywords []string) []string {
	vocab := make([]string, 0, len(baseVocabulary)+len(keywords))
	vocab = append(vocab, baseVocabulary...)
	for _, kw := range keywords {
		for _, tok := range strings.Fields(strings.ToLower(kw)) {
			if len(tok) >= 4 {
				vocab = append(vocab, tok)
			}
		}
	}
	return vocab
}

// scoreLink combines URL keyword hits, anchor-text hits, and a
// path-depth penalty. Hit counts saturate so a keyword-stuffed URL
// cannot dominate the frontier.
func scoreLink(absURL, anchorText string, vocab []string) float64 {
	parsed, err := url.Parse(absURL)
	if err != nil {
		return 0
	}
	path := strings.ToLower(parsed.Path)
	anchor := strings.ToLower(anchorText)

	urlHits, textHits := 0, 0
	for _, term := range vocab {
		if strings.Contains(path, term) {
			urlHits++
		}
		if anchor != "" && strings.Contains(anchor, term) {
			textHits++
		}
	}
	if urlHits > maxScoredHits {
		urlHits = maxScoredHits
	}
	if textHits > maxScoredHits {
		textHits = maxScoredHits
	}

	depth := len(strings.Split(strings.Trim(path, "/"), "/"))
	if path == "" || path == "/" {
		depth = 0
	}

	score := linkBaseScore +
		urlHitWeight*float64(urlHits)/maxScoredHits +
		textHitWeight*float64(textHits)/maxScoredHits -
		depthPenalty*float64(depth)
	if score < 0 {
		return 0
	}
	return score
}

func (r *Result) String() string {
	return fmt.Sprintf("crawl %s: %d pages, %d bytes, %d queued", r.Host, r.PagesFetched, r.TotalBytes, r.QueuedRemaining)
}
