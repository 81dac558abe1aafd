// CLAUDE:SUMMARY Crawl tests: page/byte budgets, deny patterns, same-host check, deterministic visit order, link scoring.
package spider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/prospect/leads/internal/fetch"
)

// fakeSite serves an in-memory page map keyed by normalized URL and
// records fetch order.
type fakeSite struct {
	pages   map[string]string
	fetched []string
}

func (s *fakeSite) fetch(ctx context.Context, url string) (*fetch.Result, error) {
	s.fetched = append(s.fetched, url)
	html, ok := s.pages[url]
	if !ok {
		return &fetch.Result{StatusCode: 404}, errors.New("http 404")
	}
	return &fetch.Result{
		Body:        []byte(html),
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Bytes:       len(html),
	}, nil
}

func fastOpts(site *fakeSite) Options {
	return Options{
		Delay: time.Millisecond,
		Fetch: site.fetch,
	}
}

func pageHTML(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><main><p>%s</p></main></body></html>", title, body)
}

func TestCrawlPageBudget(t *testing.T) {
	// WHAT: a homepage linking to 10 identically scored pages stops at
	// maxPages=3 with at least 7 links still queued.
	var links strings.Builder
	site := &fakeSite{pages: map[string]string{}}
	for i := 1; i <= 10; i++ {
		u := fmt.Sprintf("https://acme.com/product-line-%02d", i)
		fmt.Fprintf(&links, `<a href="/product-line-%02d">Packaging product %d</a> `, i, i)
		site.pages[u] = pageHTML("Line", "Stretch wrap and pallet film for industrial packaging lines, sold wholesale across the region.")
	}
	site.pages["https://acme.com/"] = pageHTML("Acme Packaging",
		"Industrial packaging distributor. "+links.String())

	opts := fastOpts(site)
	opts.MaxPages = 3
	res := Crawl(context.Background(), "acme.com", opts)

	if res.PagesFetched != 3 || len(res.Pages) != 3 {
		t.Fatalf("PagesFetched = %d (pages %d), want 3", res.PagesFetched, len(res.Pages))
	}
	if res.QueuedRemaining < 7 {
		t.Errorf("QueuedRemaining = %d, want >= 7", res.QueuedRemaining)
	}
	if res.Pages[0].URL != "https://acme.com/" {
		t.Errorf("first page = %q, want homepage", res.Pages[0].URL)
	}
}

func TestCrawlByteBudget(t *testing.T) {
	// WHAT: totalBytes never exceeds the site byte budget.
	big := pageHTML("Big", strings.Repeat("packaging wholesale distribution ", 200))
	site := &fakeSite{pages: map[string]string{
		"https://acme.com/":         big,
		"https://acme.com/products": big,
		"https://acme.com/about":    big,
	}}

	opts := fastOpts(site)
	opts.ByteBudget = int64(len(big)) + 100
	res := Crawl(context.Background(), "acme.com", opts)

	if res.TotalBytes > opts.ByteBudget {
		t.Errorf("TotalBytes = %d, want <= budget %d", res.TotalBytes, opts.ByteBudget)
	}
}

func TestCrawlNeverRevisits(t *testing.T) {
	// WHAT: the frontier never fetches the same URL twice, even when
	// every page links back to the homepage.
	site := &fakeSite{pages: map[string]string{
		"https://acme.com/":         pageHTML("Home", `<a href="/products">Products</a> <a href="/">Home</a>`),
		"https://acme.com/products": pageHTML("Products", `<a href="/">Home</a> <a href="/products">Products</a>`),
	}}

	Crawl(context.Background(), "acme.com", fastOpts(site))

	seen := make(map[string]int)
	for _, u := range site.fetched {
		seen[u]++
		if seen[u] > 1 {
			t.Errorf("URL %q fetched %d times", u, seen[u])
		}
	}
}

func TestCrawlDeterministicOrder(t *testing.T) {
	// WHY: reproducible visit order is what makes discovery runs
	// comparable across reruns with identical inputs.
	pages := map[string]string{
		"https://acme.com/":           pageHTML("Home", `<a href="/products">Our products</a> <a href="/industries">Industries served</a> <a href="/news">News</a>`),
		"https://acme.com/products":   pageHTML("Products", "Corrugated boxes and stretch film."),
		"https://acme.com/industries": pageHTML("Industries", "Food, pharma, logistics."),
		"https://acme.com/news":       pageHTML("News", "Press releases."),
	}

	a := &fakeSite{pages: pages}
	b := &fakeSite{pages: pages}
	Crawl(context.Background(), "acme.com", fastOpts(a))
	Crawl(context.Background(), "acme.com", fastOpts(b))

	if !reflect.DeepEqual(a.fetched, b.fetched) {
		t.Errorf("visit order differs:\n%v\n%v", a.fetched, b.fetched)
	}
}

func TestCrawlDenyPatterns(t *testing.T) {
	// WHAT: legal/login/cart URLs are never fetched.
	site := &fakeSite{pages: map[string]string{
		"https://acme.com/": pageHTML("Home",
			`<a href="/privacy">Privacy</a> <a href="/login">Login</a> <a href="/cart">Cart</a> <a href="/products">Products</a>`),
		"https://acme.com/products": pageHTML("Products", "Packaging supplies."),
	}}

	Crawl(context.Background(), "acme.com", fastOpts(site))

	for _, u := range site.fetched {
		for _, bad := range []string{"/privacy", "/login", "/cart"} {
			if strings.Contains(u, bad) {
				t.Errorf("denied URL fetched: %q", u)
			}
		}
	}
}

func TestCrawlSameHostOnly(t *testing.T) {
	site := &fakeSite{pages: map[string]string{
		"https://acme.com/": pageHTML("Home",
			`<a href="https://other.com/products">Partner products</a> <a href="/products">Products</a>`),
		"https://acme.com/products": pageHTML("Products", "Boxes."),
	}}

	Crawl(context.Background(), "acme.com", fastOpts(site))

	for _, u := range site.fetched {
		if strings.Contains(u, "other.com") {
			t.Errorf("off-host URL fetched: %q", u)
		}
	}
}

func TestCrawlSkipsNonHTML(t *testing.T) {
	// WHAT: a non-HTML response is discarded without following links.
	calls := 0
	opts := Options{
		Delay:    time.Millisecond,
		MaxPages: 5,
		Fetch: func(ctx context.Context, url string) (*fetch.Result, error) {
			calls++
			return &fetch.Result{
				Body:        []byte(`{"a": "<a href=\"/x\">x</a>"}`),
				StatusCode:  200,
				ContentType: "application/json",
			}, nil
		},
	}
	res := Crawl(context.Background(), "acme.com", opts)
	if res.PagesFetched != 0 {
		t.Errorf("PagesFetched = %d, want 0 for non-HTML", res.PagesFetched)
	}
}

func TestCrawlAlwaysCompletes(t *testing.T) {
	// WHAT: a host where every fetch fails still yields an empty Result.
	opts := Options{
		Delay: time.Millisecond,
		Fetch: func(ctx context.Context, url string) (*fetch.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	res := Crawl(context.Background(), "down.example.com", opts)
	if res == nil {
		t.Fatal("Crawl returned nil")
	}
	if res.PagesFetched != 0 || len(res.Pages) != 0 {
		t.Errorf("got %d pages from a dead host, want 0", res.PagesFetched)
	}
}

func TestCrawlAgainstHTTPServer(t *testing.T) {
	// WHAT: end-to-end over a real HTTP server with the default fetcher.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, pageHTML("Acme", `Industrial packaging. <a href="/products">Products</a>`))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML("Products", "Stretch wrap, corrugated boxes, pallet film."))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	f := fetch.New(fetch.Config{
		Timeout:      2 * time.Second,
		URLValidator: func(string) error { return nil },
	})
	// The test server is plain http on an IP:port host, so rewrite the
	// https scheme the frontier assumes.
	opts := Options{
		Delay:    time.Millisecond,
		MaxPages: 4,
		Fetch: func(ctx context.Context, u string) (*fetch.Result, error) {
			return f.Fetch(ctx, strings.Replace(u, "https://", "http://", 1))
		},
	}
	res := Crawl(context.Background(), host, opts)

	if res.PagesFetched < 2 {
		t.Fatalf("PagesFetched = %d, want >= 2 (home + products)", res.PagesFetched)
	}
	if !strings.Contains(res.Text(), "Stretch wrap") {
		t.Errorf("aggregated text missing product page content")
	}
}

func TestScoreLink(t *testing.T) {
	vocab := linkVocabulary([]string{"stretch wrap"})

	rich := scoreLink("https://acme.com/products", "Our packaging products", vocab)
	deep := scoreLink("https://acme.com/a/b/c/d/e", "", vocab)
	plain := scoreLink("https://acme.com/x", "", vocab)

	if rich <= plain {
		t.Errorf("keyword link %v <= plain link %v, want higher", rich, plain)
	}
	if deep >= plain {
		t.Errorf("deep link %v >= shallow link %v, want depth penalty", deep, plain)
	}
}
