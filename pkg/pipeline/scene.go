package pipeline

import (
	"context"
	"time"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/classify"
	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/relation"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// layoutOptions converts pipeline options to layout engine options.
func (o *Options) layoutOptions() layout.Options {
	return layout.Options{
		Template:               o.Template,
		TemplateConfig:         template.Config{Spacing: o.Spacing},
		UseForceDirected:       !o.NoForce,
		UseCollisionResolution: !o.NoCollision,
		MaxIterations:          o.MaxIterations,
		MinSeparation:          o.Separation,
	}
}

// BuildScene turns one parsed document (or chunk) into a laid-out scene:
// sections are classified into nodes, links are extracted, and the layout
// engine positions everything. Document-level frontmatter tags are merged
// into every node so scene-wide filters can see them.
func BuildScene(ctx context.Context, doc *markdown.Document, opts Options) (*scene.Scene, *layout.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(doc.Sections) == 0 {
		return nil, nil, apperrors.New(apperrors.ErrCodeInvalidDocument,
			"document has no sections")
	}

	cls := classify.New(classify.Config{})
	nodes := make([]scene.Node, len(doc.Sections))
	for i, sec := range doc.Sections {
		nodes[i] = cls.Node(sec)
		nodes[i].Tags = mergeTags(nodes[i].Tags, doc.Meta.Tags)
	}

	links := relation.New(relation.Config{}).Links(doc.Sections)

	engine := layout.NewEngine(opts.Seed)
	lres, err := engine.Optimize(ctx, nodes, links, opts.layoutOptions())
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeLayoutFailed, err, "compute layout")
	}

	s := &scene.Scene{
		Title:       doc.Title,
		Source:      opts.sourceName(),
		Template:    opts.Template,
		Nodes:       nodes,
		Links:       links,
		GeneratedAt: time.Now().UTC(),
	}
	return s, lres, nil
}

// mergeTags appends document tags a node does not already carry.
func mergeTags(nodeTags, docTags []string) []string {
	if len(docTags) == 0 {
		return nodeTags
	}
	seen := make(map[string]bool, len(nodeTags))
	for _, t := range nodeTags {
		seen[t] = true
	}
	for _, t := range docTags {
		if !seen[t] {
			nodeTags = append(nodeTags, t)
			seen[t] = true
		}
	}
	return nodeTags
}
