// CLAUDE:SUMMARY Parses an HTML page into title, meta description, readable text, and outbound links.
// Package extract pulls readable text and lead-relevant metadata out of
// fetched HTML pages.
//
// Parse returns the page title, meta description, every anchor with its
// visible text, and the main content text selected by density analysis
// (highest text-to-markup subtree, boilerplate filtered out). The spider
// feeds Links back into its frontier; the signal extractors consume Text.
package extract

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Options controls extraction.
type Options struct {
	// MinTextLen is the minimum text length for a subtree to be considered
	// a content candidate. Default: 80.
	MinTextLen int
}

func (o *Options) defaults() {
	if o.MinTextLen <= 0 {
		o.MinTextLen = 80
	}
}

// Link is an anchor found on the page.
type Link struct {
	Href string
	Text string
}

// Page is the extraction result for one HTML document.
type Page struct {
	Title       string
	Description string
	Text        string // main content text, whitespace-normalized
	Links       []Link
	Hash        string // SHA-256 of Text
}

// Parse extracts structured content from an HTML document.
// A page with no discernible content yields an empty Text, not an error;
// only malformed input that cannot be tokenized errors.
func Parse(body []byte, opts Options) (*Page, error) {
	opts.defaults()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	p := &Page{
		Title:       CleanText(doc.Find("title").First().Text()),
		Description: CleanText(metaDescription(doc)),
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		p.Links = append(p.Links, Link{Href: href, Text: CleanText(sel.Text())})
	})

	if root := doc.Get(0); root != nil {
		p.Text = contentText(root, opts.MinTextLen)
	}
	p.Hash = hashText(p.Text)

	return p, nil
}

// metaDescription reads <meta name="description"> or the og:description
// fallback.
func metaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && v != "" {
		return v
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return v
	}
	return ""
}

// CleanText collapses all whitespace runs to single spaces and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hashText(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
