// CLAUDE:SUMMARY UCB1 channel bandit with forced exploration, cooldown/block exclusion, pluggable persistence.
// Package bandit learns, per audience segment, which outreach channel
// converts best.
//
// Selection is two-phase: any eligible channel with fewer than
// MinTrials observations is chosen first (fewest trials, channel name
// as tie-break) so every arm gets explored; once all arms are
// sufficiently tried, the highest UCB1 score wins. Pure UCB1 on
// zero-trial arms is undefined, hence the explicit exploration phase.
package bandit

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

// Arm is the per (segment, channel) statistic. Mutated only by Report.
type Arm struct {
	Trials    int       `json:"trials"`
	Successes int       `json:"successes"`
	LastAt    time.Time `json:"last_at"`
}

// Rate is the observed success rate, zero for an untried arm.
func (a Arm) Rate() float64 {
	if a.Trials == 0 {
		return 0
	}
	return float64(a.Successes) / float64(a.Trials)
}

// ErrNoEligible is returned when cooldowns and blocks exclude every
// candidate channel.
var ErrNoEligible = errors.New("bandit: no eligible channel")

// Config wires persistence and the clock. Load and Save are optional;
// without them the bandit is purely in-memory.
type Config struct {
	// Load returns the stored arms for a segment, called once per
	// segment on first use.
	Load func(segment string) (map[string]Arm, error)
	// Save persists one arm after Report.
	Save   func(segment, channel string, a Arm) error
	Logger *slog.Logger
	Now    func() time.Time
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Options bound one Choose call.
type Options struct {
	MinTrials int           // forced-exploration floor. Default: 2.
	Cooldown  time.Duration // exclude channels used more recently than this
	Blocked   []string      // channels excluded outright
	ExploreC  float64       // UCB1 exploration constant. Default: math.Sqrt2.
}

func (o *Options) defaults() {
	if o.MinTrials <= 0 {
		o.MinTrials = 2
	}
	if o.ExploreC <= 0 {
		o.ExploreC = math.Sqrt2
	}
}

// ArmScore is one ranked channel in a Choice.
type ArmScore struct {
	Channel   string  `json:"channel"`
	Trials    int     `json:"trials"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
	UCB       float64 `json:"ucb"`
	Explore   bool    `json:"explore"` // chosen/ranked by the exploration phase
}

// Choice is the outcome of one selection.
type Choice struct {
	Chosen string     `json:"chosen"`
	Ranked []ArmScore `json:"ranked"`
}

// Bandit holds arm state for all segments. Safe for concurrent use.
type Bandit struct {
	mu     sync.Mutex
	arms   map[string]map[string]*Arm // segment → channel → arm
	loaded map[string]bool
	cfg    Config
}

// New creates a Bandit.
func New(cfg Config) *Bandit {
	cfg.defaults()
	return &Bandit{
		arms:   make(map[string]map[string]*Arm),
		loaded: make(map[string]bool),
		cfg:    cfg,
	}
}

// Choose picks an outreach channel for segment among channels.
func (b *Bandit) Choose(segment string, channels []string, opts Options) (Choice, error) {
	opts.defaults()
	if len(channels) == 0 {
		return Choice{}, ErrNoEligible
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureLoaded(segment)

	now := b.cfg.Now()
	blocked := make(map[string]bool, len(opts.Blocked))
	for _, c := range opts.Blocked {
		blocked[c] = true
	}

	var eligible []ArmScore
	totalTrials := 0
	for _, ch := range channels {
		if blocked[ch] {
			continue
		}
		arm := b.arm(segment, ch)
		if opts.Cooldown > 0 && !arm.LastAt.IsZero() && now.Sub(arm.LastAt) < opts.Cooldown {
			continue
		}
		eligible = append(eligible, ArmScore{
			Channel:   ch,
			Trials:    arm.Trials,
			Successes: arm.Successes,
			Rate:      arm.Rate(),
		})
		totalTrials += arm.Trials
	}
	if len(eligible) == 0 {
		return Choice{}, ErrNoEligible
	}

	// Exploration phase: any under-tried arm goes first.
	underTried := false
	for i := range eligible {
		if eligible[i].Trials < opts.MinTrials {
			eligible[i].Explore = true
			underTried = true
		}
	}
	if underTried {
		sort.SliceStable(eligible, func(i, j int) bool {
			x, y := eligible[i], eligible[j]
			if x.Explore != y.Explore {
				return x.Explore
			}
			if x.Trials != y.Trials {
				return x.Trials < y.Trials
			}
			return x.Channel < y.Channel
		})
		return Choice{Chosen: eligible[0].Channel, Ranked: eligible}, nil
	}

	// Exploitation phase: UCB1.
	for i := range eligible {
		e := &eligible[i]
		e.UCB = e.Rate + opts.ExploreC*math.Sqrt(math.Log(float64(totalTrials))/float64(e.Trials))
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].UCB != eligible[j].UCB {
			return eligible[i].UCB > eligible[j].UCB
		}
		return eligible[i].Channel < eligible[j].Channel
	})
	return Choice{Chosen: eligible[0].Channel, Ranked: eligible}, nil
}

// Report records one observed outcome and persists the arm.
func (b *Bandit) Report(segment, channel string, success bool) error {
	if segment == "" || channel == "" {
		return fmt.Errorf("bandit: empty segment or channel")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureLoaded(segment)

	arm := b.arm(segment, channel)
	arm.Trials++
	if success {
		arm.Successes++
	}
	arm.LastAt = b.cfg.Now()

	if b.cfg.Save != nil {
		if err := b.cfg.Save(segment, channel, *arm); err != nil {
			return fmt.Errorf("bandit: save arm: %w", err)
		}
	}
	return nil
}

// Arms returns a copy of the known arms for a segment.
func (b *Bandit) Arms(segment string) map[string]Arm {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureLoaded(segment)

	out := make(map[string]Arm, len(b.arms[segment]))
	for ch, a := range b.arms[segment] {
		out[ch] = *a
	}
	return out
}

// arm returns the live arm, creating it lazily. Caller holds b.mu.
func (b *Bandit) arm(segment, channel string) *Arm {
	seg, ok := b.arms[segment]
	if !ok {
		seg = make(map[string]*Arm)
		b.arms[segment] = seg
	}
	a, ok := seg[channel]
	if !ok {
		a = &Arm{}
		seg[channel] = a
	}
	return a
}

// ensureLoaded pulls persisted arms for a segment once. A load failure
// degrades to a fresh segment. Caller holds b.mu.
func (b *Bandit) ensureLoaded(segment string) {
	if b.loaded[segment] || b.cfg.Load == nil {
		b.loaded[segment] = true
		return
	}
	b.loaded[segment] = true

	stored, err := b.cfg.Load(segment)
	if err != nil {
		b.cfg.Logger.Warn("bandit arm load failed", "segment", segment, "error", err)
		return
	}
	for ch, a := range stored {
		arm := a
		b.arm(segment, ch)
		b.arms[segment][ch] = &arm
	}
}
