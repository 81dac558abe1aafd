// CLAUDE:SUMMARY Deterministic query expansion: keyword×geo×intent cartesian product plus overlay variants, capped and deduped.
// CLAUDE:EXPORTS Input, Queries
// Package compose expands a structured lead query into a bounded,
// deduplicated list of search query strings.
//
// The expansion is pure and deterministic: identical input always
// produces the identical list, in the identical order. That ordering
// feeds straight into the aggregator's plan-ordered provider calls, so
// any nondeterminism here would break reproducible discovery runs.
package compose

import "strings"

// Input is the structured lead query to expand.
type Input struct {
	Keywords []string // product keywords; empty falls back to a generic term
	Geos     []string // geography tokens ("New Jersey", "NJ")
	Intents  []string // intent hints ("wholesale", "bulk order")
	Overlays []string // industry/usage overlays ("distributor", "co-packer")
	Exclude  []string // brand names appended as -exclusions
	MaxOut   int      // hard cap on output length. Default: 120.
}

const (
	fallbackKeyword = "industrial suppliers"
	maxKeywords     = 4
	maxGeos         = 3
	maxIntents      = 3
	maxOverlays     = 4
	defaultMaxOut   = 120
)

// overlayTemplates are appended after the cartesian expansion; %s is
// replaced with each effective keyword.
var overlayTemplates = []string{
	"%s buyer list",
	"%s distributor directory",
	"%s site:linkedin.com/company",
}

// Queries expands in into a deduplicated list of search queries.
// Expansion order: keyword×geo×intent cartesian product first, then
// overlay variants, then template variants, so the highest-signal
// combinations survive the output cap.
func Queries(in Input) []string {
	keywords := capList(cleanList(in.Keywords), maxKeywords)
	if len(keywords) == 0 {
		keywords = []string{fallbackKeyword}
	}
	geos := capList(cleanList(in.Geos), maxGeos)
	intents := capList(cleanList(in.Intents), maxIntents)
	overlays := capList(cleanList(in.Overlays), maxOverlays)

	maxOut := in.MaxOut
	if maxOut <= 0 {
		maxOut = defaultMaxOut
	}

	exclusion := exclusionSuffix(in.Exclude)

	seen := make(map[string]bool)
	out := make([]string, 0, maxOut)
	add := func(parts ...string) {
		if len(out) >= maxOut {
			return
		}
		q := strings.Join(nonEmpty(parts), " ")
		if exclusion != "" {
			q += " " + exclusion
		}
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			return
		}
		seen[q] = true
		out = append(out, q)
	}

	// Cartesian core. Empty geo/intent lists still yield the bare
	// keyword combinations via the "" sentinel.
	for _, kw := range keywords {
		for _, geo := range orEmpty(geos) {
			for _, intent := range orEmpty(intents) {
				add(kw, intent, geo)
			}
		}
	}

	// Overlay variants: keyword + overlay (+ first geo for locality).
	for _, kw := range keywords {
		for _, ov := range overlays {
			add(kw, ov)
			if len(geos) > 0 {
				add(kw, ov, geos[0])
			}
		}
	}

	// Template variants.
	for _, kw := range keywords {
		for _, tpl := range overlayTemplates {
			add(strings.ReplaceAll(tpl, "%s", kw))
		}
	}

	return out
}

func exclusionSuffix(brands []string) string {
	var parts []string
	for _, b := range capList(cleanList(brands), 3) {
		if strings.ContainsAny(b, " \t") {
			parts = append(parts, `-"`+b+`"`)
		} else {
			parts = append(parts, "-"+b)
		}
	}
	return strings.Join(parts, " ")
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func capList(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func orEmpty(in []string) []string {
	if len(in) == 0 {
		return []string{""}
	}
	return in
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
