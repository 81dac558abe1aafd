// CLAUDE:SUMMARY The five built-in extractors: hiring, geographic, contactability, partner/brand, ad/demand.
package signals

import (
	"fmt"
	"regexp"
)

// term is one weighted pattern. Repeat matches saturate: the first hit
// contributes the full weight, each extra hit adds a quarter more, up
// to 1.5x, so keyword stuffing cannot inflate a score linearly.
type term struct {
	pattern *regexp.Regexp
	weight  float64
	reason  string
}

func kw(expr string, weight float64, reason string) term {
	return term{
		pattern: regexp.MustCompile(`(?i)` + expr),
		weight:  weight,
		reason:  reason,
	}
}

func keywordScore(text string, terms []term) Output {
	var out Output
	for _, t := range terms {
		hits := len(t.pattern.FindAllStringIndex(text, 7))
		if hits == 0 {
			continue
		}
		extra := float64(hits - 1)
		if extra > 2 {
			extra = 2
		}
		out.Score += t.weight * (1 + 0.25*extra)
		if len(out.Reasons) < maxReasons {
			reason := t.reason
			if hits > 1 {
				reason = fmt.Sprintf("%s (%dx)", reason, hits)
			}
			out.Reasons = append(out.Reasons, reason)
		}
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return out
}

func hiringActivity(text string) Output {
	return keywordScore(text, []term{
		kw(`we.?re hiring|now hiring`, 0.30, "actively hiring"),
		kw(`\bcareers?\b`, 0.20, "careers page or section"),
		kw(`open (positions?|roles?)|job openings?`, 0.25, "open positions listed"),
		kw(`join our team`, 0.15, "recruiting language"),
		kw(`apply (now|today|online)`, 0.15, "application call to action"),
	})
}

func geographicPresence(text string) Output {
	return keywordScore(text, []term{
		kw(`\blocations?\b|\bbranches\b`, 0.20, "multiple locations mentioned"),
		kw(`nationwide|coast to coast|across the (country|us|nation)`, 0.25, "nationwide coverage claimed"),
		kw(`distribution center|warehouse`, 0.25, "warehouse or distribution footprint"),
		kw(`headquarter|\bhq\b`, 0.10, "headquarters identified"),
		kw(`serving [A-Z][a-z]+|we (serve|ship to)`, 0.20, "served regions named"),
	})
}

var (
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[\s.–-]\s?\d{3}[\s.–-]\d{4}`)
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
)

func contactability(text string) Output {
	out := keywordScore(text, []term{
		kw(`contact us|get in touch`, 0.20, "contact page present"),
		kw(`request a quote|get a quote|free quote`, 0.25, "quote request offered"),
		kw(`\bsales@|\binfo@`, 0.15, "sales contact address"),
		kw(`live chat|chat with us`, 0.10, "live chat offered"),
	})
	if phonePattern.MatchString(text) {
		out.Score += 0.20
		out.Reasons = append(out.Reasons, "phone number published")
	}
	if emailPattern.MatchString(text) {
		out.Score += 0.10
		out.Reasons = append(out.Reasons, "email address published")
	}
	if out.Score > 1 {
		out.Score = 1
	}
	if len(out.Reasons) > maxReasons {
		out.Reasons = out.Reasons[:maxReasons]
	}
	return out
}

func partnerBrands(text string) Output {
	return keywordScore(text, []term{
		kw(`authorized (dealer|distributor)`, 0.30, "authorized dealer or distributor"),
		kw(`\bpartners?\b`, 0.15, "partner relationships mentioned"),
		kw(`brands we (carry|represent|stock)`, 0.25, "carried brands listed"),
		kw(`iso.?900\d|certified`, 0.15, "certifications claimed"),
		kw(`\breseller\b|\boem\b`, 0.15, "reseller or OEM program"),
	})
}

func demandSignals(text string) Output {
	return keywordScore(text, []term{
		kw(`\bwholesale\b|\bbulk\b`, 0.25, "wholesale or bulk purchasing"),
		kw(`\brfq\b|volume pricing|volume discount`, 0.25, "volume buying terms"),
		kw(`minimum order|\bmoq\b`, 0.15, "minimum order quantities"),
		kw(`lead times?\b`, 0.10, "lead times discussed"),
		kw(`in stock|same.?day shipping|free shipping`, 0.15, "fulfillment promises"),
		kw(`buy now|add to cart|shop online`, 0.10, "direct purchase path"),
	})
}
