// CLAUDE:SUMMARY Plan-ordered multi-provider search aggregation with URL dedup and domain-novelty ranking.
// Package search runs composed queries against an ordered plan of
// pluggable search providers and merges the responses into one
// deduplicated, ranked result list.
//
// Provider calls are strictly sequential in plan order so repeated runs
// with identical inputs produce identical dedup and rank outcomes. Any
// single call failure degrades to an empty list for that call; the
// aggregation itself never fails.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hazyhaar/prospect/leads/internal/urlx"
	"github.com/hazyhaar/prospect/ratelimit"
)

// Result is one normalized, ranked search result.
type Result struct {
	URL      string  `json:"url"`    // normalized URL, the dedup key
	Domain   string  `json:"domain"` // registrable domain
	Title    string  `json:"title,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
	Provider string  `json:"provider"` // id of the provider that surfaced it first
	Rank     int     `json:"rank"`     // 1-based final position
	Score    float64 `json:"score"`
}

// noveltyBonus rewards the first result from a not-yet-seen domain, so
// the ranking favors source diversity over pure provider order.
const noveltyBonus = 0.25

// Config configures an Aggregator.
type Config struct {
	Providers []Provider
	Precision bool            // reverse plan order: keyed providers first
	Gate      *ratelimit.Gate // nil → private gate
	Client    *http.Client    // nil → 15s-timeout client
	Logger    *slog.Logger    // nil → slog.Default()
	PerCall   int             // results requested per provider call. Default: 10.
}

func (c *Config) defaults() {
	if c.Gate == nil {
		c.Gate = ratelimit.New()
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.PerCall <= 0 {
		c.PerCall = 10
	}
}

// Aggregator fans queries out across the provider plan.
type Aggregator struct {
	plan   []Provider
	gate   *ratelimit.Gate
	client *http.Client
	logger *slog.Logger
	cfg    Config
}

// NewAggregator builds an Aggregator from cfg. Providers with missing
// credentials are dropped from the plan here, silently.
func NewAggregator(cfg Config) *Aggregator {
	cfg.defaults()
	return &Aggregator{
		plan:   Plan(cfg.Providers, cfg.Precision),
		gate:   cfg.Gate,
		client: cfg.Client,
		logger: cfg.Logger.With("component", "search"),
		cfg:    cfg,
	}
}

// PlanIDs returns the ids of the active provider plan, in call order.
func (a *Aggregator) PlanIDs() []string {
	ids := make([]string, len(a.plan))
	for i, p := range a.plan {
		ids[i] = p.ID
	}
	return ids
}

// Discover runs every query against the plan in order and returns at
// most budget deduplicated results, ranked by provider order plus
// domain novelty. A budget below 1 is floored to 1.
func (a *Aggregator) Discover(ctx context.Context, queries []string, budget int) []Result {
	if budget < 1 {
		budget = 1
	}

	var (
		out        []Result
		seenURL    = make(map[string]bool)
		seenDomain = make(map[string]bool)
	)

	for _, query := range queries {
		if len(out) >= budget {
			break
		}
		for _, p := range a.plan {
			if len(out) >= budget {
				break
			}
			items := a.callProvider(ctx, p, query)
			for _, item := range items {
				if len(out) >= budget {
					break
				}
				norm, err := urlx.Normalize(item.URL)
				if err != nil {
					continue
				}
				if seenURL[norm] {
					continue
				}
				seenURL[norm] = true

				domain := urlx.Domain(norm)
				score := float64(budget-len(out)) / float64(budget)
				if !seenDomain[domain] {
					seenDomain[domain] = true
					score += noveltyBonus
				}
				out = append(out, Result{
					URL:      norm,
					Domain:   domain,
					Title:    item.Title,
					Snippet:  item.Snippet,
					Provider: p.ID,
					Score:    score,
				})
			}
		}
	}

	// Novelty can promote a later new-domain result past an earlier
	// repeat-domain one; re-rank by score, stable on insertion order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// callProvider gates and executes a single provider call. Every failure
// mode (rate-gate starvation, network error, bad payload) collapses to
// an empty list for this call only.
func (a *Aggregator) callProvider(ctx context.Context, p Provider, query string) []apiResult {
	rateMax, window := p.RateMax, time.Duration(p.RateWindowS)*time.Second
	if rateMax <= 0 {
		rateMax = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	if err := a.gate.Wait(ctx, "search:"+p.ID, rateMax, window); err != nil {
		a.logger.Warn("provider call skipped, rate gate", "provider", p.ID, "error", err)
		return nil
	}

	items, err := p.search(ctx, a.client, query, a.cfg.PerCall)
	if err != nil {
		a.logger.Warn("provider call failed", "provider", p.ID, "query", query, "error", err)
		return nil
	}
	return items
}
