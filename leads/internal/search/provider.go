// CLAUDE:SUMMARY Search provider catalog: strategy dispatch (api, browser stub), credential gating, plan ordering.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
)

// Provider describes one search backend in the catalog.
type Provider struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Strategy    string    `json:"strategy" yaml:"strategy"`         // "api" | "browser"
	URLTemplate string    `json:"url_template" yaml:"url_template"` // {query} and {limit} placeholders
	API         APIConfig `json:"api" yaml:"api"`
	// RequiredEnv names an environment variable that must be set for
	// this provider to be usable. Empty means no credential is needed.
	RequiredEnv string `json:"required_env" yaml:"required_env"`
	// Tier orders the provider plan: lower tiers (free, no-key) run
	// first; precision mode reverses this.
	Tier        int  `json:"tier" yaml:"tier"`
	RateMax     int  `json:"rate_max" yaml:"rate_max"`           // calls per window, default 30
	RateWindowS int  `json:"rate_window_s" yaml:"rate_window_s"` // window seconds, default 60
	Enabled     bool `json:"enabled" yaml:"enabled"`
}

// ErrBrowserNotAvailable is returned for browser-strategy providers.
// Rendering search pages through a driven browser is a separate
// capability; catalog entries using it stay listed but inert.
var ErrBrowserNotAvailable = errors.New("search: browser strategy not available")

// Usable reports whether the provider can serve calls right now. A
// missing credential disables the provider silently, it is not an
// error condition.
func (p *Provider) Usable() bool {
	if !p.Enabled {
		return false
	}
	if p.RequiredEnv != "" && os.Getenv(p.RequiredEnv) == "" {
		return false
	}
	return true
}

// search executes one query against the provider.
func (p *Provider) search(ctx context.Context, client *http.Client, query string, limit int) ([]apiResult, error) {
	switch p.Strategy {
	case "api":
		endpoint := strings.ReplaceAll(p.URLTemplate, "{query}", url.QueryEscape(query))
		endpoint = strings.ReplaceAll(endpoint, "{limit}", fmt.Sprintf("%d", limit))
		return fetchAPI(ctx, client, endpoint, p.API)
	case "browser":
		return nil, ErrBrowserNotAvailable
	default:
		return nil, fmt.Errorf("search: unknown strategy %q", p.Strategy)
	}
}

// Plan orders providers for execution: usable providers sorted by tier
// ascending (free first), stable within a tier. In precision mode the
// tier order is reversed so keyed, higher-quality backends run first.
func Plan(providers []Provider, precision bool) []Provider {
	plan := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Usable() {
			plan = append(plan, p)
		}
	}
	sort.SliceStable(plan, func(i, j int) bool {
		if precision {
			return plan[i].Tier > plan[j].Tier
		}
		return plan[i].Tier < plan[j].Tier
	})
	return plan
}
