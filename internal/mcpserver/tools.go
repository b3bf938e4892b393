package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// textFormats are the formats convert_markdown can embed in a text result.
// PNG and PDF stay CLI-only; MCP responses are text content.
var textFormats = map[string]bool{
	pipeline.FormatX3D:  true,
	pipeline.FormatJSON: true,
	pipeline.FormatDOT:  true,
	pipeline.FormatSVG:  true,
}

func (s *Server) registerTools() {
	s.mcp.AddTool(convertTool(), s.handleConvert)
	s.mcp.AddTool(analyzeTool(), s.handleAnalyze)
	s.mcp.AddTool(listTemplatesTool(), s.handleListTemplates)
}

// =============================================================================
// convert_markdown
// =============================================================================

func convertTool() mcp.Tool {
	return mcp.NewTool("convert_markdown",
		mcp.WithDescription("Convert a Markdown document into a 3D scene. "+
			"Sections become shaped nodes, relationships become links, and the "+
			"layout engine positions everything. Returns the rendered artifact "+
			"plus conversion stats."),
		mcp.WithString("markdown", mcp.Description("Inline Markdown content to convert")),
		mcp.WithString("path", mcp.Description("Path to a Markdown file (alternative to markdown)")),
		mcp.WithString("template", mcp.Description("Layout template name (see list_templates); empty uses physics-only placement")),
		mcp.WithString("format", mcp.Description("Output format: x3d, json, dot, or svg (default x3d)")),
		mcp.WithString("title", mcp.Description("Overrides the document title")),
		mcp.WithNumber("seed", mcp.Description("Random seed for reproducible layouts (default 42)")),
		mcp.WithBoolean("no_force", mcp.Description("Skip the force-directed refinement stage")),
		mcp.WithBoolean("no_collision", mcp.Description("Skip the collision resolution stage")),
		mcp.WithBoolean("detailed", mcp.Description("Include level/shape/word-count detail in overview labels")),
	)
}

type convertResponse struct {
	Title     string            `json:"title"`
	Template  string            `json:"template,omitempty"`
	Stats     convertStats      `json:"stats"`
	Cache     convertCache      `json:"cache"`
	Artifacts map[string]string `json:"artifacts"`
}

type convertStats struct {
	Sections        int `json:"sections"`
	Nodes           int `json:"nodes"`
	Links           int `json:"links"`
	Chunks          int `json:"chunks"`
	ForceIterations int `json:"force_iterations"`
}

type convertCache struct {
	Parse  bool `json:"parse"`
	Scene  bool `json:"scene"`
	Render bool `json:"render"`
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, errResult := optionsFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}

	format := req.GetString("format", pipeline.FormatX3D)
	if !textFormats[format] {
		return mcp.NewToolResultError("format must be one of: x3d, json, dot, svg"), nil
	}
	opts.Formats = []string{format}
	opts.Template = req.GetString("template", "")
	opts.Title = req.GetString("title", "")
	opts.NoForce = req.GetBool("no_force", false)
	opts.NoCollision = req.GetBool("no_collision", false)
	opts.Detailed = req.GetBool("detailed", false)

	seed := req.GetFloat("seed", 0)
	if seed < 0 {
		return mcp.NewToolResultError("seed must be non-negative"), nil
	}
	opts.Seed = uint64(seed)

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := convertResponse{
		Title:    result.Scene().Title,
		Template: result.Scene().Template,
		Stats: convertStats{
			Sections:        result.Stats.SectionCount,
			Nodes:           result.Stats.NodeCount,
			Links:           result.Stats.LinkCount,
			Chunks:          result.Stats.Chunks,
			ForceIterations: result.Stats.ForceIterations,
		},
		Cache: convertCache{
			Parse:  result.CacheInfo.ParseHit,
			Scene:  result.CacheInfo.SceneHit,
			Render: result.CacheInfo.RenderHit,
		},
		Artifacts: make(map[string]string, len(result.Artifacts)),
	}
	for name, data := range result.Artifacts {
		resp.Artifacts[name] = string(data)
	}

	return jsonResult(resp)
}

// =============================================================================
// analyze_structure
// =============================================================================

func analyzeTool() mcp.Tool {
	return mcp.NewTool("analyze_structure",
		mcp.WithDescription("Analyze a Markdown document's structure without "+
			"rendering: sections with their classified shape, color, scale "+
			"signals and tags, plus the extracted relationship links."),
		mcp.WithString("markdown", mcp.Description("Inline Markdown content to analyze")),
		mcp.WithString("path", mcp.Description("Path to a Markdown file (alternative to markdown)")),
		mcp.WithNumber("max_section_level", mcp.Description("Deepest heading level that opens a section (default 6)")),
	)
}

type analyzeResponse struct {
	Title        string           `json:"title"`
	SectionCount int              `json:"section_count"`
	LinkCount    int              `json:"link_count"`
	Sections     []analyzeSection `json:"sections"`
	Links        []analyzeLink    `json:"links"`
	LinksByKind  map[string]int   `json:"links_by_kind"`
}

type analyzeSection struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Level     int      `json:"level"`
	WordCount int      `json:"word_count"`
	Shape     string   `json:"shape"`
	Color     string   `json:"color"`
	Tags      []string `json:"tags,omitempty"`
}

type analyzeLink struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, errResult := optionsFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}
	opts.MaxSectionLevel = int(req.GetFloat("max_section_level", 0))

	// Analysis needs classification and links, not positions: skip the
	// physics stages and never render.
	opts.NoForce = true
	opts.NoCollision = true

	doc, err := s.runner.Parse(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sc, err := s.runner.BuildScene(ctx, doc, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := analyzeResponse{
		Title:        sc.Title,
		SectionCount: len(sc.Nodes),
		LinkCount:    len(sc.Links),
		Sections:     make([]analyzeSection, len(sc.Nodes)),
		Links:        make([]analyzeLink, len(sc.Links)),
		LinksByKind:  make(map[string]int),
	}
	for i, n := range sc.Nodes {
		resp.Sections[i] = analyzeSection{
			ID:        n.ID,
			Title:     n.Title,
			Level:     n.Level,
			WordCount: n.WordCount,
			Shape:     string(n.Shape),
			Color:     n.Color,
			Tags:      n.Tags,
		}
	}
	for i, l := range sc.Links {
		resp.Links[i] = analyzeLink{
			From:   l.From,
			To:     l.To,
			Kind:   string(l.Kind),
			Weight: l.Weight,
		}
		resp.LinksByKind[string(l.Kind)]++
	}

	return jsonResult(resp)
}

// =============================================================================
// list_templates
// =============================================================================

func listTemplatesTool() mcp.Tool {
	return mcp.NewTool("list_templates",
		mcp.WithDescription("List the available layout templates with their descriptions."),
	)
}

type templateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := template.Names()
	infos := make([]templateInfo, len(names))
	for i, name := range names {
		infos[i] = templateInfo{Name: name, Description: template.Describe(name)}
	}
	return jsonResult(infos)
}

// =============================================================================
// Helpers
// =============================================================================

// optionsFromRequest builds pipeline options from the shared markdown/path
// parameter pair. Returns a tool error result when the pair is invalid.
func optionsFromRequest(req mcp.CallToolRequest) (pipeline.Options, *mcp.CallToolResult) {
	markdown := req.GetString("markdown", "")
	path := req.GetString("path", "")

	if markdown == "" && path == "" {
		return pipeline.Options{}, mcp.NewToolResultError("either markdown or path is required")
	}
	if markdown != "" && path != "" {
		return pipeline.Options{}, mcp.NewToolResultError("markdown and path are mutually exclusive")
	}

	return pipeline.Options{
		Source:     markdown,
		SourcePath: path,
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode response: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
