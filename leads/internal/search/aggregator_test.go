// CLAUDE:SUMMARY Tests for aggregation: dedup across providers, novelty bonus, failure tolerance, plan order, credential gating.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazyhaar/prospect/ratelimit"
)

// jsonProvider spins up an httptest server answering every request with
// the given items, and returns a Provider wired to it.
func jsonProvider(t *testing.T, id string, tier int, items []map[string]string) Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": items})
	}))
	t.Cleanup(srv.Close)
	return Provider{
		ID:          id,
		Strategy:    "api",
		URLTemplate: srv.URL + "?q={query}&n={limit}",
		API:         APIConfig{ResultPath: "results"},
		Tier:        tier,
		Enabled:     true,
	}
}

func failingProvider(t *testing.T, id string, tier int) Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return Provider{
		ID:          id,
		Strategy:    "api",
		URLTemplate: srv.URL,
		Tier:        tier,
		Enabled:     true,
	}
}

func TestDiscoverDedupAndRank(t *testing.T) {
	// WHAT: a URL surfaced by two providers appears once, ranked first;
	// the second domain still makes the list.
	a := jsonProvider(t, "prov-a", 0, []map[string]string{
		{"url": "https://a.com/x"},
	})
	b := jsonProvider(t, "prov-b", 1, []map[string]string{
		{"url": "https://a.com/x"},
		{"url": "https://b.com"},
	})

	agg := NewAggregator(Config{Providers: []Provider{a, b}})
	got := agg.Discover(context.Background(), []string{"stretch wrap wholesale New Jersey"}, 10)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].URL != "https://a.com/x" || got[0].Rank != 1 {
		t.Errorf("first = %+v, want a.com/x at rank 1", got[0])
	}
	if got[1].URL != "https://b.com" {
		t.Errorf("second = %+v, want b.com", got[1])
	}
	if got[0].Provider != "prov-a" {
		t.Errorf("first result provider = %q, want prov-a (earlier in plan)", got[0].Provider)
	}
}

func TestDiscoverDedupRootSlash(t *testing.T) {
	// WHAT: a homepage spelled with and without the trailing slash is the
	// same page and must consume one budget slot, not two.
	p := jsonProvider(t, "prov", 0, []map[string]string{
		{"url": "https://b.com"},
		{"url": "https://b.com/"},
	})

	agg := NewAggregator(Config{Providers: []Provider{p}})
	got := agg.Discover(context.Background(), []string{"q"}, 10)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	if got[0].URL != "https://b.com" {
		t.Errorf("URL = %q, want the bare spelling", got[0].URL)
	}
}

func TestDiscoverNoveltyBonus(t *testing.T) {
	// WHAT: a later result from a fresh domain outranks an earlier
	// repeat-domain result once the bonus outweighs the index decay.
	p := jsonProvider(t, "prov", 0, []map[string]string{
		{"url": "https://a.com/one"},
		{"url": "https://a.com/two"},
		{"url": "https://b.com/page"},
	})

	agg := NewAggregator(Config{Providers: []Provider{p}})
	got := agg.Discover(context.Background(), []string{"q"}, 10)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Domain != "a.com" || got[1].Domain != "b.com" {
		t.Errorf("order = [%s %s %s], want fresh b.com promoted to second",
			got[0].Domain, got[1].Domain, got[2].Domain)
	}
}

func TestDiscoverBudget(t *testing.T) {
	p := jsonProvider(t, "prov", 0, []map[string]string{
		{"url": "https://a.com/1"}, {"url": "https://a.com/2"},
		{"url": "https://a.com/3"}, {"url": "https://a.com/4"},
	})
	agg := NewAggregator(Config{Providers: []Provider{p}})

	if got := agg.Discover(context.Background(), []string{"q"}, 2); len(got) != 2 {
		t.Errorf("len = %d, want budget 2", len(got))
	}
	// WHY: a zero budget floors to 1 instead of erroring; this runs in
	// unattended batches where a throw would drop the whole run.
	if got := agg.Discover(context.Background(), []string{"q"}, 0); len(got) != 1 {
		t.Errorf("len = %d, want floored budget 1", len(got))
	}
}

func TestDiscoverToleratesFailingProvider(t *testing.T) {
	// WHAT: one provider that always returns 500 never aborts the run.
	bad := failingProvider(t, "bad", 0)
	good := jsonProvider(t, "good", 1, []map[string]string{
		{"url": "https://ok.com", "title": "OK Co"},
	})

	agg := NewAggregator(Config{Providers: []Provider{bad, good}})
	got := agg.Discover(context.Background(), []string{"q1", "q2"}, 5)

	if len(got) == 0 {
		t.Fatal("no results despite a healthy provider in the plan")
	}
	if got[0].URL != "https://ok.com" {
		t.Errorf("got %+v, want ok.com from the healthy provider", got[0])
	}
}

func TestFetchAPIOversizePayload(t *testing.T) {
	// WHAT: a payload past the read cap is an error, not a truncated
	// parse; the aggregator downgrades it to an empty call.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"url":"https://a.com","snippet":"`))
		w.Write(bytes.Repeat([]byte("x"), int(maxAPIResponse)))
		w.Write([]byte(`"}]}`))
	}))
	defer srv.Close()

	_, err := fetchAPI(context.Background(), srv.Client(), srv.URL, APIConfig{ResultPath: "results"})
	if err == nil {
		t.Fatal("fetchAPI on oversize payload: err = nil, want error")
	}
}

func TestPlanOrdering(t *testing.T) {
	providers := []Provider{
		{ID: "paid", Tier: 2, Enabled: true, Strategy: "api"},
		{ID: "free", Tier: 0, Enabled: true, Strategy: "api"},
		{ID: "keyed", Tier: 1, Enabled: true, Strategy: "api"},
		{ID: "off", Tier: 0, Enabled: false, Strategy: "api"},
	}

	plan := Plan(providers, false)
	if len(plan) != 3 || plan[0].ID != "free" || plan[2].ID != "paid" {
		t.Errorf("plan = %v, want free-tier first without disabled", ids(plan))
	}

	precision := Plan(providers, true)
	if precision[0].ID != "paid" {
		t.Errorf("precision plan = %v, want paid first", ids(precision))
	}
}

func TestProviderCredentialGating(t *testing.T) {
	// WHAT: a missing credential disables the provider silently.
	p := Provider{ID: "keyed", Strategy: "api", Enabled: true, RequiredEnv: "PROSPECT_TEST_MISSING_KEY"}
	if p.Usable() {
		t.Error("Usable() = true with unset credential, want false")
	}
	t.Setenv("PROSPECT_TEST_MISSING_KEY", "secret")
	if !p.Usable() {
		t.Error("Usable() = false with credential set, want true")
	}
}

func TestDiscoverRateGateShared(t *testing.T) {
	// WHAT: provider calls consume the shared gate keyed by provider id.
	p := jsonProvider(t, "gated", 0, []map[string]string{{"url": "https://x.com"}})
	p.RateMax = 100
	p.RateWindowS = 60

	gate := ratelimit.New()
	agg := NewAggregator(Config{Providers: []Provider{p}, Gate: gate})
	agg.Discover(context.Background(), []string{"q"}, 3)

	if used := gate.Used("search:gated", time.Minute); used != 1 {
		t.Errorf("gate used = %d, want 1", used)
	}
}

func ids(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
