package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/cache"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/observability"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the MCP server, and the preview server all use this to avoid
// duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Execute runs the complete parse → layout → render pipeline with caching.
//
// Oversized documents are chunked along top-level boundaries and flow
// through the layout and render stages once per chunk; each chunk's scene
// and artifacts cache independently.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ValidateTemplate(opts.Template); err != nil {
		return nil, err
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	// Concurrent executions share one runner (the MCP server runs tool
	// calls against the same instance), so every log line carries a short
	// run ID for correlation.
	opts.Logger = opts.Logger.With("run", runID())

	hooks := observability.Pipeline()
	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	source := opts.sourceName()
	parseStart := time.Now()
	hooks.OnParseStart(ctx, source)
	doc, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	result.Stats.ParseTime = time.Since(parseStart)
	hooks.OnParseComplete(ctx, source, sectionCount(doc), result.Stats.ParseTime, err)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Document = doc
	result.CacheInfo.ParseHit = parseHit
	result.Stats.SectionCount = len(doc.Sections)
	opts.Logger.Info("parsed document",
		"source", source,
		"sections", len(doc.Sections),
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// The title override is applied after the cache lookup so cached
	// documents stay override-independent. Chunk titles and scene cache
	// keys derive from the overridden title.
	if opts.Title != "" {
		doc.Title = opts.Title
	}

	// Frontmatter may name a template; explicit options win.
	if opts.Template == "" && doc.Meta.Template != "" {
		if _, ok := template.Lookup(doc.Meta.Template); ok {
			opts.Template = doc.Meta.Template
		} else {
			opts.Logger.Warn("ignoring unknown frontmatter template", "template", doc.Meta.Template)
		}
	}

	chunks := markdown.Chunker{MaxSections: opts.ChunkThreshold}.Chunk(doc)
	result.Stats.Chunks = len(chunks)
	if len(chunks) > 1 {
		opts.Logger.Info("chunked document", "chunks", len(chunks))
	}

	// Stages 2+3: Layout and render, once per chunk
	sceneHit, renderHit := true, true
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		layoutStart := time.Now()
		hooks.OnLayoutStart(ctx, opts.Template, len(chunk.Sections))
		s, iterations, hit, err := r.BuildSceneWithCacheInfo(ctx, chunk, opts)
		layoutDur := time.Since(layoutStart)
		hooks.OnLayoutComplete(ctx, opts.Template, iterations, layoutDur, err)
		result.Stats.LayoutTime += layoutDur
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		sceneHit = sceneHit && hit
		result.Scenes = append(result.Scenes, s)
		result.Stats.NodeCount += len(s.Nodes)
		result.Stats.LinkCount += len(s.Links)
		result.Stats.ForceIterations += iterations

		renderStart := time.Now()
		hooks.OnRenderStart(ctx, opts.Formats)
		artifacts, rhit, err := r.RenderWithCacheInfo(ctx, s, opts)
		renderDur := time.Since(renderStart)
		hooks.OnRenderComplete(ctx, opts.Formats, renderDur, err)
		result.Stats.RenderTime += renderDur
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		renderHit = renderHit && rhit
		for format, data := range artifacts {
			result.Artifacts[artifactName(format, i)] = data
		}
	}
	result.CacheInfo.SceneHit = sceneHit
	result.CacheInfo.RenderHit = renderHit
	result.SceneHash = sceneContentHash(result.Scenes[0])

	opts.Logger.Info("pipeline complete",
		"chunks", result.Stats.Chunks,
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"artifacts", len(result.Artifacts),
		"duration", result.Stats.ParseTime+result.Stats.LayoutTime+result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo parses the source, using the cache when possible.
// Returns the document and whether it came from cache.
//
// The cached document never carries the Title override; callers apply it
// after the lookup.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*markdown.Document, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	raw, name, err := loadSource(opts)
	if err != nil {
		return nil, false, err
	}

	c := r.cacheFor(opts)
	key := r.Keyer.ParseKey(cache.Hash(raw), opts.ParseKeyOpts())
	chooks := observability.Cache()

	if !opts.Refresh {
		var cached markdown.Document
		if err := cache.GetJSON(ctx, c, key, &cached); err == nil {
			chooks.OnCacheHit(ctx, "parse")
			opts.Logger.Debug("parse cache hit", "key", key)
			return &cached, true, nil
		}
	}
	chooks.OnCacheMiss(ctx, "parse")

	doc, err := Parse(ctx, raw, name, opts)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(doc); err == nil {
		_ = c.Set(ctx, key, data, cache.TTLParse)
		chooks.OnCacheSet(ctx, "parse", len(data))
	}
	return doc, false, nil
}

// BuildSceneWithCacheInfo builds a laid-out scene for one document chunk,
// using the cache when possible. Returns the scene, the force iteration
// count (zero on a cache hit), and whether it came from cache.
func (r *Runner) BuildSceneWithCacheInfo(ctx context.Context, doc *markdown.Document, opts Options) (*scene.Scene, int, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, 0, false, err
	}
	r.applyLogger(&opts)

	c := r.cacheFor(opts)
	key := r.Keyer.SceneKey(chunkHash(doc), opts.SceneKeyOpts())
	chooks := observability.Cache()

	if !opts.Refresh {
		var cached scene.Scene
		if err := cache.GetJSON(ctx, c, key, &cached); err == nil {
			chooks.OnCacheHit(ctx, "scene")
			opts.Logger.Debug("scene cache hit", "key", key)
			return &cached, 0, true, nil
		}
	}
	chooks.OnCacheMiss(ctx, "scene")

	s, lres, err := BuildScene(ctx, doc, opts)
	if err != nil {
		return nil, 0, false, err
	}
	if data, err := json.Marshal(s); err == nil {
		_ = c.Set(ctx, key, data, cache.TTLScene)
		chooks.OnCacheSet(ctx, "scene", len(data))
	}
	return s, lres.Force.Iterations, false, nil
}

// RenderWithCacheInfo renders a scene into the requested formats, using
// the cache when possible. Returns the artifacts and whether every format
// came from cache; a single missing format re-renders all of them, since
// the overview formats share most of their cost.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *scene.Scene, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	sceneHash := sceneContentHash(s)
	c := r.cacheFor(opts)
	chooks := observability.Cache()

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
			data, hit, err := c.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
		if allCached {
			chooks.OnCacheHit(ctx, "artifact")
			opts.Logger.Debug("artifact cache hit", "formats", opts.Formats)
			return artifacts, true, nil
		}
	}
	chooks.OnCacheMiss(ctx, "artifact")

	rendered, err := RenderScene(s, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		_ = c.Set(ctx, key, data, cache.TTLArtifact)
		chooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Parse parses the source, using the cache when possible.
func (r *Runner) Parse(ctx context.Context, opts Options) (*markdown.Document, error) {
	doc, _, err := r.ParseWithCacheInfo(ctx, opts)
	return doc, err
}

// BuildScene builds a laid-out scene, using the cache when possible.
func (r *Runner) BuildScene(ctx context.Context, doc *markdown.Document, opts Options) (*scene.Scene, error) {
	s, _, _, err := r.BuildSceneWithCacheInfo(ctx, doc, opts)
	return s, err
}

// Render renders a scene, using the cache when possible.
func (r *Runner) Render(ctx context.Context, s *scene.Scene, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

// cacheFor returns the effective backend, substituting the null cache when
// the caller disabled caching for this run.
func (r *Runner) cacheFor(opts Options) cache.Cache {
	if opts.NoCache {
		return cache.NewNullCache()
	}
	return r.Cache
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// runID returns the first segment of a fresh UUID - enough to correlate
// interleaved log lines without carrying all 36 characters on each one.
func runID() string {
	return uuid.NewString()[:8]
}

// artifactName keys one chunk's artifact in Result.Artifacts: the first
// chunk owns the bare format name, later chunks carry a 1-based suffix
// ("x3d", "x3d.2", "x3d.3", ...).
func artifactName(format string, chunk int) string {
	if chunk == 0 {
		return format
	}
	return format + "." + strconv.Itoa(chunk+1)
}

// chunkHash identifies one document chunk by content. The whole document
// marshals in: Meta feeds node tags and Title feeds the scene, so both
// belong in the scene key.
func chunkHash(doc *markdown.Document) string {
	data, _ := json.Marshal(doc)
	return cache.Hash(data)
}

// sceneContentHash hashes the parts of a scene that determine rendered
// artifacts. GeneratedAt is excluded so re-laying-out identical content
// keeps hitting the same artifact keys.
func sceneContentHash(s *scene.Scene) string {
	data, _ := json.Marshal(struct {
		Title    string       `json:"title"`
		Template string       `json:"template"`
		Nodes    []scene.Node `json:"nodes"`
		Links    []scene.Link `json:"links"`
	}{s.Title, s.Template, s.Nodes, s.Links})
	return cache.Hash(data)
}

func sectionCount(doc *markdown.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Sections)
}
