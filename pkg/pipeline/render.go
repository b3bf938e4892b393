package pipeline

import (
	"encoding/json"

	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/render/overview"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/render/x3d"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// RenderScene generates output artifacts for a scene in the requested
// formats. The overview DOT text is built once and shared by the dot, svg,
// png, and pdf formats.
func RenderScene(s *scene.Scene, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	// Memoized: every overview format starts from the same DOT text.
	dot := ""
	overviewDOT := func() string {
		if dot == "" {
			dot = overview.ToDOT(s, overview.Options{Detailed: opts.Detailed})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatX3D:
			data = x3d.Render(s, x3d.Options{})
		case FormatJSON:
			data, err = json.MarshalIndent(s, "", "  ")
		case FormatDOT:
			data = []byte(overviewDOT())
		case FormatSVG:
			data, err = overview.RenderSVG(overviewDOT())
		case FormatPNG:
			data, err = overview.RenderPNG(overviewDOT(), 2.0)
		case FormatPDF:
			data, err = overview.RenderPDF(overviewDOT())
		default:
			return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeRenderFailed, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
