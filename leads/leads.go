// CLAUDE:SUMMARY Leads service orchestrator: compose → search → recency filter → crawl → signals → score → rank.
// Package leads discovers, crawls, and ranks candidate organizations
// matching a buyer/supplier profile, and learns which outreach channel
// converts per audience segment.
//
// The package is a library boundary, not a service: the HTTP layer,
// auth, and billing live elsewhere and are assumed to have authorized
// the call. Every pipeline failure degrades to fewer or
// lower-confidence results rather than an error.
package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/prospect/dbopen"
	"github.com/hazyhaar/prospect/idgen"
	"github.com/hazyhaar/prospect/leads/internal/bandit"
	"github.com/hazyhaar/prospect/leads/internal/compose"
	"github.com/hazyhaar/prospect/leads/internal/scoring"
	"github.com/hazyhaar/prospect/leads/internal/search"
	"github.com/hazyhaar/prospect/leads/internal/signals"
	"github.com/hazyhaar/prospect/leads/internal/spider"
	"github.com/hazyhaar/prospect/leads/internal/store"
	"github.com/hazyhaar/prospect/leads/internal/urlx"
	"github.com/hazyhaar/prospect/ratelimit"
)

// Service is the discovery orchestrator.
type Service struct {
	config *Config
	logger *slog.Logger
	db     *sql.DB
	store  *store.Store
	gate   *ratelimit.Gate
	agg    *search.Aggregator
	bandit *bandit.Bandit
	newID  idgen.Generator
	now    func() time.Time

	// crawl is swappable for tests.
	crawl func(ctx context.Context, host string, opts spider.Options) *spider.Result

	closed bool
	mu     sync.Mutex
}

// New creates a leads Service. A nil config uses defaults with no
// search providers, which still allows ScoreSite and channel learning.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := dbopen.Open(dbPath,
		dbopen.WithSchema(store.Schema),
		dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("leads: open db: %w", err)
	}
	if cfg.DBPath == "" {
		// An in-memory database exists per connection; keep the pool
		// at one so every query sees the same schema and data.
		db.SetMaxOpenConns(1)
	}

	st := store.New(db)
	gate := ratelimit.New()

	svc := &Service{
		config: cfg,
		logger: logger.With("service", "leads"),
		db:     db,
		store:  st,
		gate:   gate,
		newID:  idgen.Prefixed("run_", idgen.Default),
		now:    time.Now,
		crawl:  spider.Crawl,
	}

	svc.agg = search.NewAggregator(search.Config{
		Providers: cfg.Providers,
		Gate:      gate,
		Logger:    svc.logger,
	})

	svc.bandit = bandit.New(bandit.Config{
		Logger: svc.logger,
		Load: func(segment string) (map[string]bandit.Arm, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return st.LoadArms(ctx, segment)
		},
		Save: func(segment, channel string, a bandit.Arm) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return st.SaveArm(ctx, segment, channel, a)
		},
	})

	return svc, nil
}

// Close releases the database handle.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Discover runs the full pipeline for one lead query and returns the
// ranked candidates. Invalid input degrades to documented defaults.
func (s *Service) Discover(ctx context.Context, q LeadQuery) (*DiscoverReport, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	start := s.now()
	report := &DiscoverReport{
		RunID:     s.newID(),
		StartedAt: start,
	}
	logger := s.logger.With("run_id", report.RunID)

	queries := compose.Queries(compose.Input{
		Keywords: q.Keywords,
		Geos:     q.Geos,
		Intents:  q.Intents,
		Overlays: q.Overlays,
		Exclude:  q.Exclude,
	})
	report.Queries = len(queries)

	results := s.discoverResults(ctx, q, queries)
	report.Results = len(results)

	candidates, skipped := s.selectCandidates(ctx, q, results)
	report.Skipped = skipped

	report.Candidates = s.scoreCandidates(ctx, q, candidates)

	for _, c := range report.Candidates {
		if err := s.store.MarkSeen(ctx, c.Candidate.Domain); err != nil {
			logger.Warn("mark seen failed", "domain", c.Candidate.Domain, "error", err)
		}
	}

	report.Duration = s.now().Sub(start)
	if err := s.store.RecordRun(ctx, store.Run{
		ID:         report.RunID,
		StartedAt:  start,
		Duration:   report.Duration,
		Queries:    report.Queries,
		Results:    report.Results,
		Candidates: len(report.Candidates),
	}); err != nil {
		logger.Warn("run log write failed", "error", err)
	}

	logger.Info("discovery done",
		"queries", report.Queries,
		"results", report.Results,
		"skipped", report.Skipped,
		"candidates", len(report.Candidates),
		"duration_ms", report.Duration.Milliseconds())
	return report, nil
}

// discoverResults runs the aggregator when a plan exists. With no
// usable providers discovery yields nothing rather than failing, so a
// credential-less deployment still supports ScoreSite.
func (s *Service) discoverResults(ctx context.Context, q LeadQuery, queries []string) []search.Result {
	if len(s.agg.PlanIDs()) == 0 {
		s.logger.Warn("no usable search providers configured")
		return nil
	}
	agg := s.agg
	if q.Precision {
		agg = search.NewAggregator(search.Config{
			Providers: s.config.Providers,
			Precision: true,
			Gate:      s.gate,
			Logger:    s.logger,
		})
	}
	return agg.Discover(ctx, queries, s.config.Budget)
}

// selectCandidates folds results into per-domain candidates, drops
// domains surfaced within the recency window, and caps the list.
func (s *Service) selectCandidates(ctx context.Context, q LeadQuery, results []search.Result) ([]Candidate, int) {
	maxCandidates := q.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = s.config.MaxCandidates
	}

	var (
		order    []string
		byDomain = make(map[string]Candidate)
	)
	for _, r := range results {
		if _, ok := byDomain[r.Domain]; ok {
			continue
		}
		byDomain[r.Domain] = Candidate{
			Domain:      r.Domain,
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Snippet,
			Provider:    r.Provider,
			SearchScore: r.Score,
		}
		order = append(order, r.Domain)
	}

	unseen, err := s.store.FilterUnseen(ctx, order, s.config.RecencyWindow)
	if err != nil {
		s.logger.Warn("recency filter failed, keeping all candidates", "error", err)
		unseen = order
	}
	skipped := len(order) - len(unseen)

	if len(unseen) > maxCandidates {
		unseen = unseen[:maxCandidates]
	}
	out := make([]Candidate, len(unseen))
	for i, d := range unseen {
		out[i] = byDomain[d]
	}
	return out, skipped
}

// scoreCandidates crawls and scores candidates on a bounded worker
// pool, then ranks by overall score.
func (s *Service) scoreCandidates(ctx context.Context, q LeadQuery, candidates []Candidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]ScoredCandidate, len(candidates))
	sem := make(chan struct{}, s.config.CrawlWorkers)
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scored[i] = s.scoreCandidate(ctx, q, c)
		}(i, c)
	}
	wg.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Overall != scored[j].Overall {
			return scored[i].Overall > scored[j].Overall
		}
		return scored[i].Candidate.Domain < scored[j].Candidate.Domain
	})
	return scored
}

func (s *Service) scoreCandidate(ctx context.Context, q LeadQuery, c Candidate) ScoredCandidate {
	res := s.crawl(ctx, c.Domain, s.spiderOptions(q.Keywords))

	// Signals run over the markdown rendering when available: it keeps
	// mailto and tel targets that the extracted text drops. Search
	// metadata still counts when the site itself gave us nothing.
	text := res.Markdown()
	if text == "" {
		text = res.Text()
	}
	if text == "" {
		text = strings.Join([]string{c.Title, c.Snippet}, "\n")
	}
	rep := signals.RunAll(text)
	for key, msg := range rep.Errors {
		s.logger.Warn("signal extractor failed", "signal", key, "error", msg)
	}

	var penalties []scoring.Penalty
	if res.PagesFetched == 0 {
		penalties = append(penalties, scoring.Penalty{
			Reason: "site unreachable or empty, scored from search snippets only",
			Factor: 0.5,
		})
	}

	sc := scoring.Score(rep.Scores(), scoring.Weights(s.config.Weights), penalties...)
	return ScoredCandidate{
		Candidate: c,
		Overall:   sc.Overall,
		Grade:     sc.Grade,
		Breakdown: sc.Breakdown,
		Reasons:   sc.Reasons,
		Crawl: CrawlStats{
			PagesFetched:    res.PagesFetched,
			QueuedRemaining: res.QueuedRemaining,
			TotalBytes:      res.TotalBytes,
			DurationMs:      res.Duration.Milliseconds(),
		},
	}
}

func (s *Service) spiderOptions(keywords []string) spider.Options {
	return spider.Options{
		MaxPages:   s.config.Spider.MaxPages,
		ByteBudget: s.config.Spider.ByteBudget,
		Timeout:    s.config.Spider.Timeout,
		Delay:      s.config.Spider.Delay,
		Keywords:   keywords,
		Logger:     s.logger,
	}
}

// ScoreSite crawls and scores a single host without a search pass.
func (s *Service) ScoreSite(ctx context.Context, host string, keywords ...string) (*ScoredCandidate, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	// Tolerate scheme- or path-qualified input: "https://acme.com/about"
	// and "acme.com" name the same site.
	host = urlx.Domain(strings.TrimSpace(host))
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidInput)
	}
	q := LeadQuery{Keywords: keywords}
	sc := s.scoreCandidate(ctx, q, Candidate{Domain: host, URL: "https://" + host})
	return &sc, nil
}

// RecommendChannel asks the bandit for the next outreach channel for a
// segment. With no explicit channels the configured set is used.
func (s *Service) RecommendChannel(ctx context.Context, seg Segment, channels []string) (*ChannelChoice, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = s.config.Channels
	}
	choice, err := s.bandit.Choose(seg.Key(), channels, bandit.Options{
		MinTrials: s.config.Bandit.MinTrials,
		Cooldown:  s.config.Bandit.Cooldown,
	})
	if errors.Is(err, bandit.ErrNoEligible) {
		return nil, ErrNoChannel
	}
	if err != nil {
		return nil, fmt.Errorf("leads: choose channel: %w", err)
	}

	out := &ChannelChoice{Chosen: choice.Chosen}
	for _, r := range choice.Ranked {
		out.Ranked = append(out.Ranked, ChannelRank{
			Channel:   r.Channel,
			Trials:    r.Trials,
			Successes: r.Successes,
			Rate:      r.Rate,
			UCB:       r.UCB,
			Explore:   r.Explore,
		})
	}
	return out, nil
}

// ReportOutcome closes the learning loop after outreach on a channel.
func (s *Service) ReportOutcome(ctx context.Context, seg Segment, channel string, success bool) error {
	if err := s.alive(); err != nil {
		return err
	}
	if channel == "" {
		return fmt.Errorf("%w: empty channel", ErrInvalidInput)
	}
	return s.bandit.Report(seg.Key(), channel, success)
}

// Stats summarizes service state for operators.
type Stats struct {
	Providers  []string    `json:"providers"`
	Channels   []string    `json:"channels"`
	RecentRuns []store.Run `json:"recent_runs"`
}

// ServiceStats reports the active provider plan and recent runs.
func (s *Service) ServiceStats(ctx context.Context) (*Stats, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	runs, err := s.store.RecentRuns(ctx, 20)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Providers:  s.agg.PlanIDs(),
		Channels:   s.config.Channels,
		RecentRuns: runs,
	}, nil
}

func (s *Service) alive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
