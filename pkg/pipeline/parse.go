package pipeline

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
)

// loadSource returns the raw Markdown bytes and a display name for them,
// reading from disk when SourcePath is set and taking Source verbatim
// otherwise. Inputs over MaxDocumentBytes are rejected with a typed error
// so callers can report the limit.
func loadSource(opts Options) ([]byte, string, error) {
	var raw []byte
	name := opts.SourceName

	if opts.SourcePath != "" {
		if err := apperrors.ValidateSourcePath(opts.SourcePath); err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(opts.SourcePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", apperrors.Wrap(apperrors.ErrCodeFileNotFound, err,
					"source file not found: %s", opts.SourcePath)
			}
			return nil, "", apperrors.Wrap(apperrors.ErrCodeInvalidPath, err,
				"read source file: %s", opts.SourcePath)
		}
		raw = data
		name = opts.SourcePath
	} else {
		raw = []byte(opts.Source)
	}

	limit := opts.MaxDocumentBytes
	if limit == 0 {
		limit = DefaultMaxDocumentBytes
	}
	if int64(len(raw)) > limit {
		return nil, "", &apperrors.DocumentTooLargeError{
			SizeBytes:  int64(len(raw)),
			LimitBytes: limit,
		}
	}

	return raw, name, nil
}

// Parse loads and parses the Markdown source into a structured document.
//
// The returned document carries the title derived from the source itself;
// the Title override in opts is applied by the runner after any cache
// lookup, so cached documents stay override-independent.
func Parse(ctx context.Context, raw []byte, name string, opts Options) (*markdown.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := markdown.NewParser(markdown.Config{
		MaxSectionLevel: opts.MaxSectionLevel,
	})
	doc, err := parser.Parse(raw, name)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}
	return doc, nil
}
