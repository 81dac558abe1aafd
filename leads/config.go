// CLAUDE:SUMMARY Service configuration with defaults and YAML loading (provider catalog, weights, budgets).
package leads

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/prospect/leads/internal/search"
)

// Config configures the leads service.
type Config struct {
	// DBPath is the SQLite file for seen domains, bandit arms, and the
	// run log. Empty means in-memory state for the process lifetime.
	DBPath string `yaml:"db_path"`

	// Providers is the search backend catalog.
	Providers []search.Provider `yaml:"providers"`

	// Budget is the default search-result budget per discovery run.
	Budget int `yaml:"budget"`

	// MaxCandidates is the default number of domains crawled per run.
	MaxCandidates int `yaml:"max_candidates"`

	// CrawlWorkers bounds concurrent crawls across candidate hosts.
	CrawlWorkers int `yaml:"crawl_workers"`

	// RecencyWindow suppresses domains surfaced within this window.
	RecencyWindow time.Duration `yaml:"recency_window"`

	// Weights override the scoring defaults; negative values mark risk
	// dimensions.
	Weights map[string]float64 `yaml:"weights"`

	// Channels are the outreach channels the bandit chooses among.
	Channels []string `yaml:"channels"`

	Spider SpiderConfig `yaml:"spider"`
	Bandit BanditConfig `yaml:"bandit"`
}

// SpiderConfig bounds each per-site crawl.
type SpiderConfig struct {
	MaxPages   int           `yaml:"max_pages"`
	ByteBudget int64         `yaml:"byte_budget"`
	Timeout    time.Duration `yaml:"timeout"`
	Delay      time.Duration `yaml:"delay"`
}

// BanditConfig tunes channel selection.
type BanditConfig struct {
	MinTrials int           `yaml:"min_trials"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

func (c *Config) defaults() {
	if c.Budget <= 0 {
		c.Budget = 30
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 8
	}
	if c.CrawlWorkers <= 0 {
		c.CrawlWorkers = 3
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = 30 * 24 * time.Hour
	}
	if len(c.Channels) == 0 {
		c.Channels = []string{"email", "linkedin", "phone"}
	}
	if c.Spider.MaxPages <= 0 {
		c.Spider.MaxPages = 8
	}
	if c.Spider.ByteBudget <= 0 {
		c.Spider.ByteBudget = 2 * 1024 * 1024
	}
	if c.Spider.Timeout <= 0 {
		c.Spider.Timeout = 10 * time.Second
	}
	if c.Spider.Delay <= 0 {
		c.Spider.Delay = 700 * time.Millisecond
	}
	if c.Bandit.MinTrials <= 0 {
		c.Bandit.MinTrials = 2
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leads: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("leads: parse config: %w", err)
	}
	cfg.defaults()
	return &cfg, nil
}
