// Package pipeline provides the core conversion pipeline for Markdown3D.
//
// This package implements the complete parse → layout → render pipeline that
// can be used by the CLI, the MCP server, and the preview server. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Extract sections, metadata and structure from Markdown source
//  2. Layout: Classify sections, derive links, and compute 3D positions
//  3. Render: Generate output in various formats (X3D, JSON, SVG, DOT, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage result is cached under a content-addressed key.
//
// Documents whose section count exceeds the chunk threshold are split at
// top-level boundaries and flow through layout and render once per chunk;
// artifacts for chunks beyond the first carry a numeric suffix.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SourcePath: "README.md",
//	    Template:   "documentation",
//	    Formats:    []string{"x3d"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x3dDoc := result.Artifacts["x3d"]
//
// Run individual stages:
//
//	// Parse only
//	doc, err := runner.Parse(ctx, opts)
//
//	// Layout with an existing document
//	s, err := runner.BuildScene(ctx, doc, opts)
//
//	// Render with an existing scene
//	artifacts, err := runner.Render(ctx, s, opts)
package pipeline

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/cache"
	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, MCP, and Server
// =============================================================================

const (
	// DefaultMaxSectionLevel is the deepest heading level that still opens
	// its own section; deeper headings fold into their parent's content.
	DefaultMaxSectionLevel = 6

	// DefaultChunkThreshold is the section count above which a document is
	// split into chunks along top-level boundaries.
	DefaultChunkThreshold = markdown.DefaultMaxSections

	// DefaultMaxDocumentBytes caps accepted source size. Inputs over the
	// limit fail fast with a typed error instead of stalling the layout
	// stages.
	DefaultMaxDocumentBytes = int64(10 << 20)

	// DefaultMaxIterations caps the force simulation.
	DefaultMaxIterations = 100

	// DefaultSeparation is the required surface gap between nodes.
	DefaultSeparation = 2.0

	// DefaultSpacing is the template gap between adjacent nodes.
	DefaultSpacing = 5.0

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultSourceName names inline sources with no path.
	DefaultSourceName = "document"
)

// Format constants for output formats.
const (
	FormatX3D  = "x3d"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatX3D:  true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for MCP requests.
type Options struct {
	// Parse options
	Source           string `json:"source,omitempty"`      // inline Markdown content
	SourcePath       string `json:"source_path,omitempty"` // path to a Markdown file
	SourceName       string `json:"source_name,omitempty"` // display name for inline content
	Title            string `json:"title,omitempty"`       // overrides the derived document title
	MaxSectionLevel  int    `json:"max_section_level,omitempty"`
	ChunkThreshold   int    `json:"chunk_threshold,omitempty"`
	MaxDocumentBytes int64  `json:"max_document_bytes,omitempty"`

	// Layout options
	Template      string  `json:"template,omitempty"` // empty means seeded random placement
	NoForce       bool    `json:"no_force,omitempty"`
	NoCollision   bool    `json:"no_collision,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	Separation    float64 `json:"separation,omitempty"`
	Spacing       float64 `json:"spacing,omitempty"`
	Seed          uint64  `json:"seed,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // detailed overview labels

	// Cache options
	NoCache bool `json:"no_cache,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the parsed source document, before chunking.
	Document *markdown.Document

	// Scenes holds one laid-out scene per chunk; single-chunk documents
	// have exactly one.
	Scenes []*scene.Scene

	// SceneHash is the content hash of the first scene.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format. Chunks beyond
	// the first use suffixed keys ("x3d.2", "x3d.3", ...).
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Scene returns the first chunk's scene, or nil before Execute.
func (r *Result) Scene() *scene.Scene {
	if len(r.Scenes) == 0 {
		return nil
	}
	return r.Scenes[0]
}

// Stats contains pipeline execution statistics. For chunked documents
// the counts and durations aggregate over all chunks.
type Stats struct {
	SectionCount    int
	NodeCount       int
	LinkCount       int
	Chunks          int
	ForceIterations int
	ParseTime       time.Duration
	LayoutTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage. For chunked
// documents a stage counts as hit only when every chunk hit.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed document came from cache
	SceneHit  bool // Whether all scenes came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: x3d, json, svg, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTemplate checks that a template name is well-formed and
// registered. The empty name is valid and selects random seeding.
func ValidateTemplate(name string) error {
	if name == "" {
		return nil
	}
	if err := apperrors.ValidateTemplateName(name); err != nil {
		return err
	}
	if _, ok := template.Lookup(name); !ok {
		return apperrors.New(apperrors.ErrCodeInvalidTemplate,
			"unknown template: %q (available: %s)", name, strings.Join(template.Names(), ", "))
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.Source == "" && o.SourcePath == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "source or source_path is required")
	}
	if o.Source != "" && o.SourcePath != "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "source and source_path are mutually exclusive")
	}
	if o.SourcePath != "" {
		if err := apperrors.ValidateSourcePath(o.SourcePath); err != nil {
			return err
		}
	}

	// Parse defaults
	if o.SourceName == "" {
		o.SourceName = DefaultSourceName
	}
	if o.MaxSectionLevel == 0 {
		o.MaxSectionLevel = DefaultMaxSectionLevel
	}
	if o.ChunkThreshold == 0 {
		o.ChunkThreshold = DefaultChunkThreshold
	}
	if o.MaxDocumentBytes == 0 {
		o.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	o.setLoggerDefault()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
//
// Every knob that feeds a scene cache key is pinned to an explicit value
// here, so the same effective configuration always produces the same key
// whether the caller spelled the defaults out or left them zero.
func (o *Options) SetLayoutDefaults() {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Separation == 0 {
		o.Separation = DefaultSeparation
	}
	if o.Spacing == 0 {
		o.Spacing = DefaultSpacing
	}
	o.setLoggerDefault()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return ValidateTemplate(o.Template)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatX3D}
	}
	o.setLoggerDefault()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateTemplate(o.Template); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
}

// sourceName is the display name used in logs and hooks: the path when
// reading a file, the inline name otherwise.
func (o *Options) sourceName() string {
	if o.SourcePath != "" {
		return o.SourcePath
	}
	return o.SourceName
}

// ParseKeyOpts returns cache key options for the parse stage.
func (o *Options) ParseKeyOpts() cache.ParseKeyOpts {
	return cache.ParseKeyOpts{
		MaxSectionLevel: o.MaxSectionLevel,
	}
}

// SceneKeyOpts returns cache key options for scene construction.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		Template:            o.Template,
		Seed:                o.Seed,
		ForceDirected:       !o.NoForce,
		CollisionResolution: !o.NoCollision,
		MaxIterations:       o.MaxIterations,
		Separation:          o.Separation,
		Spacing:             o.Spacing,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
