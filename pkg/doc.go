// Package pkg provides the core libraries for Markdown3D scene generation.
//
// # Overview
//
// Markdown3D transforms markdown documents into navigable 3D scenes where
// every section becomes a shaped, colored node positioned by its role in the
// document. The pkg directory is organized into five main areas:
//
//  1. [markdown] - Document parsing (frontmatter, sections, chunking)
//  2. [classify] / [relation] - Semantic analysis (visual attributes, links)
//  3. [layout] - Spatial arrangement (templates, forces, collision)
//  4. [render] - Output formats (X3D, JSON, SVG/PNG/PDF overviews)
//  5. [pipeline] - Orchestration (parse → scene → render)
//
// # Architecture
//
// The typical data flow through Markdown3D:
//
//	Markdown document
//	         ↓
//	    [markdown] package (frontmatter + section tree)
//	         ↓
//	    [classify] + [relation] packages (shapes, colors, links)
//	         ↓
//	    [layout] package (template placement + force refinement)
//	         ↓
//	    [render] package (X3D / JSON / overview diagrams)
//
// # Quick Start
//
// Convert a document through the cached pipeline:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/MushroomFleet/Markdown3D-MCP/pkg/cache"
//	    "github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
//	defer runner.Close()
//
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    SourcePath: "README.md",
//	    Template:   "documentation",
//	    Formats:    []string{pipeline.FormatX3D, pipeline.FormatJSON},
//	})
//	_ = os.WriteFile("scene.x3d", result.Artifacts["x3d"], 0644)
//
// # Main Packages
//
// ## Document Analysis
//
// [markdown] - GitHub-flavored markdown parsing. Splits a document into
// heading-bounded sections with stable slug IDs, word counts, code-fence
// languages, and link targets; YAML frontmatter carries title, template,
// and tags. Oversized documents chunk along top-level section boundaries.
//
// [classify] - Deterministic rules mapping each section to a node shape
// (code-heavy sections become cubes, link hubs spheres, top-level sections
// pyramids, ...), a level-indexed color, and a word-count-damped scale.
//
// [relation] - Link extraction in four passes: hierarchy (parent sections),
// reference (intra-document anchors), keyword (Jaccard title/content
// similarity), and sequence (consecutive siblings).
//
// ## Spatial Layout
//
// [scene] - The Node/Link/Scene model shared by every stage, with JSON
// round-tripping and validation.
//
// [geometry] - Vector3 and Box value math used by all spatial code.
//
// [spatial] - An octree over scene nodes for neighbor and region queries.
//
// [layout] - The arrangement engine: a named template places nodes, an
// optional force simulation ([layout/force]) relaxes them, and a collision
// pass ([layout/collision]) enforces minimum separation. Eight templates
// ([layout/template]) cover research papers, documentation, planning
// boards, knowledge bases, tutorials, hierarchies, timelines, and concept
// maps. Seeded runs are fully reproducible.
//
// ## Rendering
//
// [render/x3d] - X3D document writer: one Transform per node, per-shape
// geometry, strut cylinders per link, and viewpoints framed from the scene
// bounds. The output loads directly in X3DOM.
//
// [render/overview] - 2D overview diagrams via Graphviz (DOT → SVG), with
// PDF/PNG conversion helpers in [render].
//
// ## Infrastructure
//
// [pipeline] - The complete conversion pipeline (parse → scene → render)
// used by the CLI, the MCP server, and the preview server. Ensures
// consistent caching and validation across all entry points.
//
// [cache] - Stage-keyed caching with five backends: memory (preview
// server), file (CLI default), Redis and MongoDB (shared deployments), and
// null (--no-cache). Keys hash stage inputs, so any option change misses.
//
// [errors] - Structured error codes with user-facing messages and input
// validation helpers.
//
// [observability] - Hook interfaces for pipeline stages, cache traffic,
// and preview-server activity. No-op by default.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Common Workflows
//
// Parse a document without rendering:
//
//	doc, _ := markdown.NewParser(markdown.Config{}).ParseFile("notes.md")
//	for _, s := range doc.Sections {
//	    fmt.Println(s.ID, s.Title, s.WordCount)
//	}
//
// Build nodes and links from parsed sections:
//
//	classifier := classify.New(classify.Config{})
//	nodes := make([]scene.Node, len(doc.Sections))
//	for i, s := range doc.Sections {
//	    nodes[i] = classifier.Node(s)
//	}
//	links := relation.New(relation.Config{}).Links(doc.Sections)
//
// Re-run layout on an existing scene with a different template:
//
//	engine := layout.NewEngine(layout.DefaultSeed)
//	res, _ := engine.Optimize(ctx, sc.Nodes, sc.Links, layout.Options{
//	    Template: "concept-map",
//	})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                  # All tests
//	go test ./pkg/layout/...           # Specific package
//	go test -run Example               # Examples only
//
// [markdown]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown
// [classify]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/classify
// [relation]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/relation
// [scene]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/scene
// [geometry]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry
// [spatial]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/spatial
// [layout]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/layout
// [layout/force]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/force
// [layout/collision]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/collision
// [layout/template]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template
// [render]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/render
// [render/x3d]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/render/x3d
// [render/overview]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/render/overview
// [pipeline]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/cache
// [errors]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/errors
// [observability]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/MushroomFleet/Markdown3D-MCP/pkg/buildinfo
package pkg
