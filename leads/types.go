// CLAUDE:SUMMARY Public types: LeadQuery input, candidates, scored results, discovery report, audience segment.
package leads

import (
	"strings"
	"time"
)

// LeadQuery is the immutable input to a discovery run.
type LeadQuery struct {
	Keywords []string `json:"keywords" yaml:"keywords"` // product keywords; empty falls back to a generic term
	Geos     []string `json:"geos" yaml:"geos"`
	Intents  []string `json:"intents" yaml:"intents"`
	Overlays []string `json:"overlays" yaml:"overlays"`
	Exclude  []string `json:"exclude" yaml:"exclude"` // brand names excluded from queries
	// MaxCandidates caps how many candidate domains get crawled and
	// scored. Values below 1 fall back to the configured default.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`
	// Precision reverses the provider plan so keyed backends run first.
	Precision bool `json:"precision" yaml:"precision"`
}

// Candidate is one discovered organization before crawling.
type Candidate struct {
	Domain      string  `json:"domain"`
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Snippet     string  `json:"snippet,omitempty"`
	Provider    string  `json:"provider"`
	SearchScore float64 `json:"search_score"`
}

// CrawlStats summarizes the crawl behind a scored candidate.
type CrawlStats struct {
	PagesFetched    int   `json:"pages_fetched"`
	QueuedRemaining int   `json:"queued_remaining"`
	TotalBytes      int64 `json:"total_bytes"`
	DurationMs      int64 `json:"duration_ms"`
}

// ScoredCandidate is the ranked, explainable output. Recomputed on
// every scoring request, never persisted.
type ScoredCandidate struct {
	Candidate Candidate          `json:"candidate"`
	Overall   float64            `json:"overall"` // 0..100
	Grade     string             `json:"grade"`
	Breakdown map[string]float64 `json:"breakdown"`
	Reasons   []string           `json:"reasons"`
	Crawl     CrawlStats         `json:"crawl"`
}

// DiscoverReport is the outcome of one discovery run.
type DiscoverReport struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Queries    int               `json:"queries"`
	Results    int               `json:"results"` // deduplicated search results
	Skipped    int               `json:"skipped"` // domains inside the recency window
	Candidates []ScoredCandidate `json:"candidates"`
}

// Segment identifies an audience cohort for channel learning.
type Segment struct {
	Country    string `json:"country" yaml:"country"`
	State      string `json:"state" yaml:"state"`
	ProductTag string `json:"product_tag" yaml:"product_tag"`
	SizeBand   string `json:"size_band" yaml:"size_band"` // "smb", "mid", "enterprise"
}

// Key derives the deterministic segment key the bandit learns under.
// Empty parts collapse to "any" so partial segments still group.
func (s Segment) Key() string {
	part := func(v string) string {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return "any"
		}
		return v
	}
	return strings.Join([]string{
		part(s.Country), part(s.State), part(s.ProductTag), part(s.SizeBand),
	}, "|")
}

// ChannelChoice is the bandit's recommendation.
type ChannelChoice struct {
	Chosen string        `json:"chosen"`
	Ranked []ChannelRank `json:"ranked"`
}

// ChannelRank is one ranked channel with its learning state.
type ChannelRank struct {
	Channel   string  `json:"channel"`
	Trials    int     `json:"trials"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
	UCB       float64 `json:"ucb"`
	Explore   bool    `json:"explore"`
}
