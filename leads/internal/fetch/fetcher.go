// CLAUDE:SUMMARY Bounded HTTP fetcher with SSRF validation, charset-to-UTF-8 conversion, HTML detection.
// Package fetch implements the bounded HTTP fetcher shared by the search
// provider adapters and the spider.
//
// Every response body is capped before reading and converted to UTF-8
// using the declared or sniffed charset, so downstream extraction never
// sees unbounded or mis-encoded input.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/hazyhaar/prospect/urlsafe"
)

// Result contains the outcome of a fetch.
type Result struct {
	Body        []byte // UTF-8 converted
	StatusCode  int
	ContentType string
	Bytes       int // size of the raw body before conversion
}

// IsHTML reports whether the response declared an HTML content type.
func (r *Result) IsHTML() bool {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		// Servers that omit the header usually serve HTML.
		return r.ContentType == ""
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration // per-request timeout. Default: 10s.
	MaxBytes  int64         // max raw body size. Default: 512 KiB.
	UserAgent string
	// URLValidator validates URLs before fetch (SSRF prevention).
	// Default: urlsafe.ValidateURL.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 512 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "prospect/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = urlsafe.ValidateURL
	}
}

// Fetcher performs bounded HTTP GETs.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher with SSRF protection on redirects.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves a URL. Non-2xx statuses are errors; the Result still
// carries the status code so callers can log it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := f.config.URLValidator(url); err != nil {
		return nil, fmt.Errorf("URL blocked: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}
	result.Bytes = len(body)

	result.Body = toUTF8(body, result.ContentType)
	return result, nil
}

// toUTF8 converts body to UTF-8. An explicit charset parameter in the
// Content-Type header wins; otherwise the encoding is sniffed from the
// body prefix. Conversion failures fall back to the raw bytes.
func toUTF8(body []byte, contentType string) []byte {
	if name := headerCharset(contentType); name != "" && name != "utf-8" {
		if enc, err := htmlindex.Get(name); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
				return decoded
			}
		}
	}

	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

func headerCharset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}
