// CLAUDE:SUMMARY MCP tool surface: discover, score_site, recommend_channel, report_outcome, stats.
package leads

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/prospect/idgen"
	"github.com/hazyhaar/prospect/kit"
)

// RegisterMCP registers all prospect tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerDiscover(srv)
	s.registerScoreSite(srv)
	s.registerRecommendChannel(srv)
	s.registerReportOutcome(srv)
	s.registerStats(srv)
}

var newReqID = idgen.Prefixed("req_", idgen.NanoID(12))

// mcpEnrich tags the call context with a fresh request ID and the
// transport name so log lines from one tool call correlate.
func mcpEnrich(ctx context.Context) context.Context {
	ctx = kit.WithRequestID(ctx, newReqID())
	return kit.WithTransport(ctx, "mcp")
}

// traced wraps a tool endpoint with call logging keyed by the
// request-scoped identity mcpEnrich attached.
func (s *Service) traced(tool string, ep kit.Endpoint) kit.Endpoint {
	logCalls := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := s.now()
			resp, err := next(ctx, req)
			s.logger.Info("tool call",
				"tool", tool,
				"request_id", kit.GetRequestID(ctx),
				"transport", kit.GetTransport(ctx),
				"duration_ms", s.now().Sub(start).Milliseconds(),
				"ok", err == nil)
			return resp, err
		}
	}
	return kit.Chain(logCalls)(ep)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Service) registerDiscover(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "prospect_discover",
		Description: "Discover, crawl, and score candidate organizations for a lead query",
		InputSchema: inputSchema(map[string]any{
			"keywords":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Product keywords"},
			"geos":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Geography tokens"},
			"intents":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Intent hints (wholesale, bulk)"},
			"overlays":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Industry overlays"},
			"exclude":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Brand names to exclude"},
			"max_candidates": map[string]any{"type": "integer", "description": "Max domains to crawl and score"},
			"precision":      map[string]any{"type": "boolean", "description": "Run keyed providers first"},
		}, []string{"keywords"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		q := r.(*LeadQuery)
		return s.Discover(ctx, *q)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var q LeadQuery
		if err := json.Unmarshal(r.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &q, EnrichCtx: mcpEnrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.traced(tool.Name, endpoint), decode)
}

func (s *Service) registerScoreSite(srv *mcp.Server) {
	type req struct {
		Host     string   `json:"host"`
		Keywords []string `json:"keywords"`
	}

	tool := &mcp.Tool{
		Name:        "prospect_score_site",
		Description: "Crawl and score a single candidate site without a search pass",
		InputSchema: inputSchema(map[string]any{
			"host":     map[string]any{"type": "string", "description": "Site host, e.g. acme.com"},
			"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Domain keywords guiding the crawl"},
		}, []string{"host"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.ScoreSite(ctx, p.Host, p.Keywords...)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: mcpEnrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.traced(tool.Name, endpoint), decode)
}

func segmentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"country":     map[string]any{"type": "string"},
			"state":       map[string]any{"type": "string"},
			"product_tag": map[string]any{"type": "string"},
			"size_band":   map[string]any{"type": "string", "description": "smb, mid, or enterprise"},
		},
	}
}

func (s *Service) registerRecommendChannel(srv *mcp.Server) {
	type req struct {
		Segment  Segment  `json:"segment"`
		Channels []string `json:"channels"`
	}

	tool := &mcp.Tool{
		Name:        "prospect_recommend_channel",
		Description: "Recommend the next outreach channel for an audience segment",
		InputSchema: inputSchema(map[string]any{
			"segment":  segmentSchema(),
			"channels": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Candidate channels; defaults to the configured set"},
		}, []string{"segment"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.RecommendChannel(ctx, p.Segment, p.Channels)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: mcpEnrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.traced(tool.Name, endpoint), decode)
}

func (s *Service) registerReportOutcome(srv *mcp.Server) {
	type req struct {
		Segment Segment `json:"segment"`
		Channel string  `json:"channel"`
		Success bool    `json:"success"`
	}

	tool := &mcp.Tool{
		Name:        "prospect_report_outcome",
		Description: "Report an outreach outcome so channel learning improves",
		InputSchema: inputSchema(map[string]any{
			"segment": segmentSchema(),
			"channel": map[string]any{"type": "string", "description": "Channel that was used"},
			"success": map[string]any{"type": "boolean", "description": "Whether the outreach converted"},
		}, []string{"segment", "channel"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if err := s.ReportOutcome(ctx, p.Segment, p.Channel, p.Success); err != nil {
			return nil, err
		}
		return map[string]string{"status": "recorded"}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: mcpEnrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.traced(tool.Name, endpoint), decode)
}

func (s *Service) registerStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "prospect_stats",
		Description: "Show the active provider plan, channels, and recent discovery runs",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.ServiceStats(ctx)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil, EnrichCtx: mcpEnrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.traced(tool.Name, endpoint), decode)
}
