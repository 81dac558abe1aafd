// CLAUDE:SUMMARY JSON search-API caller: dot-notation result walking, field mapping, ${ENV_VAR} header expansion.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hazyhaar/prospect/urlsafe"
)

// APIConfig describes how to call and parse one provider's JSON API.
// Header values support ${ENV_VAR} expansion so credentials live in the
// environment, never in catalog files.
type APIConfig struct {
	Method     string            `json:"method" yaml:"method"`           // default GET
	Headers    map[string]string `json:"headers" yaml:"headers"`         // ${ENV_VAR} expanded
	ResultPath string            `json:"result_path" yaml:"result_path"` // dot-notation: "web.results"
	Fields     map[string]string `json:"fields" yaml:"fields"`           // {"title":"name","snippet":"description","url":"link"}
}

// apiResult is one raw item extracted from a provider response, before
// the aggregator normalizes it into a Result.
type apiResult struct {
	Title   string
	Snippet string
	URL     string
}

// maxAPIResponse caps provider payload reads. A response past the cap
// is malformed, not truncatable: partial JSON never parses.
const maxAPIResponse = 2 * urlsafe.MaxResponseBody

// fetchAPI calls a provider endpoint and extracts items per cfg. Any
// HTTP, decode, or path failure is an error; the aggregator downgrades
// it to an empty result list.
func fetchAPI(ctx context.Context, client *http.Client, endpoint string, cfg APIConfig) ([]apiResult, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("search: new request: %w", err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, os.Expand(v, os.Getenv))
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search: http %d", resp.StatusCode)
	}

	body, err := urlsafe.LimitedReadAll(resp.Body, maxAPIResponse)
	if err != nil {
		return nil, fmt.Errorf("search: read body: %w", err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("search: json decode: %w", err)
	}

	items, err := resultItems(raw, cfg.ResultPath)
	if err != nil {
		return nil, fmt.Errorf("search: result path %q: %w", cfg.ResultPath, err)
	}

	out := make([]apiResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := mapFields(obj, cfg.Fields)
		if r.URL == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// resultItems walks a dot-notation path into decoded JSON and returns
// the array found there. An empty path means the root is the array.
func resultItems(v any, path string) ([]any, error) {
	current := v
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected object at %q, got %T", part, current)
			}
			if current, ok = obj[part]; !ok {
				return nil, fmt.Errorf("key %q not found", part)
			}
		}
	}
	arr, ok := current.([]any)
	if !ok {
		return nil, fmt.Errorf("not an array (%T)", current)
	}
	return arr, nil
}

func mapFields(obj map[string]any, fields map[string]string) apiResult {
	field := func(name string) string {
		key := name
		if f, ok := fields[name]; ok {
			key = f
		}
		return asString(obj[key])
	}
	return apiResult{
		Title:   field("title"),
		Snippet: field("snippet"),
		URL:     field("url"),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}
