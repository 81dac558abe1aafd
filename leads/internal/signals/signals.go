// CLAUDE:SUMMARY Static signal-extractor registry with panic isolation and saturating keyword scoring.
// Package signals turns crawled site text into independent, bounded
// lead signals.
//
// Each extractor is a pure function from text to a score in [0,1] plus
// short reasons. Extractors never see each other's output; the registry
// isolates a failing extractor to an error entry for its key only, so
// partial coverage still produces a usable overall score.
package signals

import (
	"fmt"
	"sort"
)

// Output is one extractor's verdict.
type Output struct {
	Score   float64  `json:"score"`   // bounded [0,1]
	Reasons []string `json:"reasons"` // at most maxReasons entries
}

// Extractor analyzes raw site text.
type Extractor func(text string) Output

const maxReasons = 12

// registry is fixed at init; a signal without an implementation is
// simply absent, there is no runtime probing.
var registry = map[string]Extractor{
	"hiring":         hiringActivity,
	"geographic":     geographicPresence,
	"contactability": contactability,
	"partners":       partnerBrands,
	"demand":         demandSignals,
}

// Keys returns all registered signal keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Report is the outcome of one RunAll pass.
type Report struct {
	Results map[string]Output `json:"results"`
	// Errors maps a signal key to its failure; the key is then absent
	// from Results.
	Errors  map[string]string `json:"errors,omitempty"`
	Reasons []string          `json:"reasons"`
}

// Scores flattens Results into key → score for the scoring engine.
func (r *Report) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Results))
	for k, v := range r.Results {
		out[k] = v.Score
	}
	return out
}

// RunAll executes extractors over text. With no explicit keys it runs
// the full registry in sorted key order. Unknown keys and panicking
// extractors become error entries; the remaining signals still run.
func RunAll(text string, only ...string) *Report {
	keys := only
	if len(keys) == 0 {
		keys = Keys()
	} else {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}

	rep := &Report{
		Results: make(map[string]Output, len(keys)),
		Errors:  make(map[string]string),
	}
	for _, key := range keys {
		ext, ok := registry[key]
		if !ok {
			rep.Errors[key] = "unknown signal"
			continue
		}
		out, err := runOne(ext, text)
		if err != nil {
			rep.Errors[key] = err.Error()
			continue
		}
		rep.Results[key] = out
		rep.Reasons = append(rep.Reasons, out.Reasons...)
	}
	if len(rep.Errors) == 0 {
		rep.Errors = nil
	}
	return rep
}

func runOne(ext Extractor, text string) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	out = ext(text)
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	if len(out.Reasons) > maxReasons {
		out.Reasons = out.Reasons[:maxReasons]
	}
	return out, nil
}
