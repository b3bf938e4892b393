package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/cache"
	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"x3d", false},
		{"json", false},
		{"svg", false},
		{"dot", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"X3D", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"x3d", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"x3d", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false}, // empty selects random seeding
		{"documentation", false},
		{"research-paper", false},
		{"hierarchical", false},
		{"unknown-template", true},
		{"Bad Name", true},
	}

	for _, tt := range tests {
		err := ValidateTemplate(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTemplate(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{
		Source: "# Hello",
	}

	if err := opts.ValidateForParse(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}

	// Check defaults were set
	if opts.SourceName != DefaultSourceName {
		t.Errorf("SourceName should be %q, got %q", DefaultSourceName, opts.SourceName)
	}
	if opts.MaxSectionLevel != DefaultMaxSectionLevel {
		t.Errorf("MaxSectionLevel should be %d, got %d", DefaultMaxSectionLevel, opts.MaxSectionLevel)
	}
	if opts.ChunkThreshold != DefaultChunkThreshold {
		t.Errorf("ChunkThreshold should be %d, got %d", DefaultChunkThreshold, opts.ChunkThreshold)
	}
	if opts.MaxDocumentBytes != DefaultMaxDocumentBytes {
		t.Errorf("MaxDocumentBytes should be %d, got %d", DefaultMaxDocumentBytes, opts.MaxDocumentBytes)
	}
}

func TestOptionsValidateForParse(t *testing.T) {
	// Missing source and source_path
	opts := Options{}
	if err := opts.ValidateForParse(); err == nil {
		t.Error("Missing source should fail")
	}

	// Both source and source_path
	opts = Options{Source: "# Hi", SourcePath: "doc.md"}
	if err := opts.ValidateForParse(); err == nil {
		t.Error("Source and source_path together should fail")
	}

	// Path traversal
	opts = Options{SourcePath: "../etc/passwd"}
	if err := opts.ValidateForParse(); err == nil {
		t.Error("Path traversal should fail")
	}

	// Valid inline source
	opts = Options{Source: "# Hi"}
	if err := opts.ValidateForParse(); err != nil {
		t.Errorf("Valid inline source should pass: %v", err)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{
		Source: "# Hello",
	}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalSeed := opts.Seed
	originalFormats := len(opts.Formats)
	originalThreshold := opts.ChunkThreshold

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Seed != originalSeed {
		t.Error("Seed changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
	if opts.ChunkThreshold != originalThreshold {
		t.Error("ChunkThreshold changed on second call")
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Seed != DefaultSeed {
		t.Errorf("Seed should be %d, got %d", DefaultSeed, opts.Seed)
	}
	if opts.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations should be %d, got %d", DefaultMaxIterations, opts.MaxIterations)
	}
	if opts.Separation != DefaultSeparation {
		t.Errorf("Separation should be %f, got %f", DefaultSeparation, opts.Separation)
	}
	if opts.Spacing != DefaultSpacing {
		t.Errorf("Spacing should be %f, got %f", DefaultSpacing, opts.Spacing)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatX3D {
		t.Errorf("Formats should be [x3d], got %v", opts.Formats)
	}
}

func TestSceneKeyOptsReflectToggles(t *testing.T) {
	opts := Options{Source: "# Hi"}
	opts.SetLayoutDefaults()

	ko := opts.SceneKeyOpts()
	if !ko.ForceDirected || !ko.CollisionResolution {
		t.Error("Both stages should be enabled by default")
	}

	opts.NoForce = true
	opts.NoCollision = true
	ko = opts.SceneKeyOpts()
	if ko.ForceDirected || ko.CollisionResolution {
		t.Error("Disabled stages should show in the key opts")
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		format string
		chunk  int
		want   string
	}{
		{"x3d", 0, "x3d"},
		{"x3d", 1, "x3d.2"},
		{"json", 2, "json.3"},
	}

	for _, tt := range tests {
		if got := artifactName(tt.format, tt.chunk); got != tt.want {
			t.Errorf("artifactName(%q, %d) = %q, want %q", tt.format, tt.chunk, got, tt.want)
		}
	}
}

func TestSceneContentHashIgnoresGeneratedAt(t *testing.T) {
	s1 := &scene.Scene{
		Title:       "Doc",
		Template:    "documentation",
		Nodes:       []scene.Node{{ID: "a", Title: "A", Level: 1}},
		GeneratedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s2 := &scene.Scene{
		Title:       "Doc",
		Template:    "documentation",
		Nodes:       []scene.Node{{ID: "a", Title: "A", Level: 1}},
		GeneratedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}

	if sceneContentHash(s1) != sceneContentHash(s2) {
		t.Error("GeneratedAt should not affect the scene hash")
	}

	s2.Title = "Other"
	if sceneContentHash(s1) == sceneContentHash(s2) {
		t.Error("Title should affect the scene hash")
	}
}

const testDocument = `---
title: Test Document
tags: [demo]
---

# Introduction

This introduction explains the overall purpose of the document in detail.

## Getting Started

Install the toolchain and run the setup script before anything else.

## Reference

See [Introduction](#introduction) for background material.
`

func TestRunnerExecute(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(), nil, discardLogger())
	defer runner.Close()

	opts := Options{
		Source:  testDocument,
		Formats: []string{"x3d", "json", "dot"},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Stats.SectionCount != 3 {
		t.Errorf("SectionCount should be 3, got %d", result.Stats.SectionCount)
	}
	if result.Stats.NodeCount != 3 {
		t.Errorf("NodeCount should be 3, got %d", result.Stats.NodeCount)
	}
	if result.Stats.LinkCount == 0 {
		t.Error("Expected at least one link")
	}
	if result.Stats.Chunks != 1 {
		t.Errorf("Chunks should be 1, got %d", result.Stats.Chunks)
	}
	if result.SceneHash == "" {
		t.Error("SceneHash should be set")
	}

	s := result.Scene()
	if s == nil {
		t.Fatal("Scene should not be nil")
	}
	if s.Title != "Test Document" {
		t.Errorf("Scene title should come from frontmatter, got %q", s.Title)
	}

	for _, format := range []string{"x3d", "json", "dot"} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("Artifact %q should not be empty", format)
		}
	}
	if !bytes.Contains(result.Artifacts["x3d"], []byte("<X3D")) {
		t.Error("X3D artifact should contain an X3D element")
	}

	// Nothing was cached before the first run
	if result.CacheInfo.ParseHit || result.CacheInfo.SceneHit || result.CacheInfo.RenderHit {
		t.Error("First run should not hit the cache")
	}
}

func TestRunnerExecuteCacheHits(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(), nil, discardLogger())
	defer runner.Close()

	opts := Options{
		Source:  testDocument,
		Formats: []string{"x3d", "json"},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("First Execute failed: %v", err)
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Second Execute failed: %v", err)
	}

	if !second.CacheInfo.ParseHit {
		t.Error("Second run should hit the parse cache")
	}
	if !second.CacheInfo.SceneHit {
		t.Error("Second run should hit the scene cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("Second run should hit the artifact cache")
	}

	if !bytes.Equal(first.Artifacts["x3d"], second.Artifacts["x3d"]) {
		t.Error("Cached artifact should match the original")
	}

	// Refresh bypasses every stage cache
	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Refresh Execute failed: %v", err)
	}
	if third.CacheInfo.ParseHit || third.CacheInfo.SceneHit || third.CacheInfo.RenderHit {
		t.Error("Refresh run should not hit the cache")
	}
}

func TestRunnerExecuteTitleOverride(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(), nil, discardLogger())
	defer runner.Close()

	base := Options{Source: testDocument, Formats: []string{"json"}}
	if _, err := runner.Execute(context.Background(), base); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	renamed := Options{Source: testDocument, Formats: []string{"json"}, Title: "Renamed"}
	result, err := runner.Execute(context.Background(), renamed)
	if err != nil {
		t.Fatalf("Execute with title failed: %v", err)
	}

	// Same source bytes, so the parse stage still hits; the scene differs.
	if !result.CacheInfo.ParseHit {
		t.Error("Title override should not affect the parse cache")
	}
	if result.CacheInfo.SceneHit {
		t.Error("Title override should miss the scene cache")
	}
	if got := result.Scene().Title; got != "Renamed" {
		t.Errorf("Scene title should be overridden, got %q", got)
	}
}

func TestRunnerExecuteChunks(t *testing.T) {
	doc := `# Part One

Opening content for the first part of the document.

## Detail One

More detail content here.

# Part Two

Opening content for the second part of the document.

## Detail Two

Closing detail content here.
`

	runner := NewRunner(nil, nil, discardLogger())
	defer runner.Close()

	opts := Options{
		Source:         doc,
		ChunkThreshold: 2,
		Formats:        []string{"x3d"},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Stats.Chunks != 2 {
		t.Fatalf("Chunks should be 2, got %d", result.Stats.Chunks)
	}
	if len(result.Scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d", len(result.Scenes))
	}
	if len(result.Artifacts["x3d"]) == 0 {
		t.Error("First chunk artifact should be keyed x3d")
	}
	if len(result.Artifacts["x3d.2"]) == 0 {
		t.Error("Second chunk artifact should be keyed x3d.2")
	}
	if result.Stats.SectionCount != 4 {
		t.Errorf("SectionCount should cover the whole document, got %d", result.Stats.SectionCount)
	}
}

func TestRunnerExecuteFrontmatterTemplate(t *testing.T) {
	doc := `---
template: timeline
---

# Phase One

First phase of the effort.

# Phase Two

Second phase of the effort.
`

	runner := NewRunner(nil, nil, discardLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{Source: doc, Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := result.Scene().Template; got != "timeline" {
		t.Errorf("Frontmatter template should apply, got %q", got)
	}

	// An explicit template wins over frontmatter.
	result, err = runner.Execute(context.Background(), Options{
		Source:   doc,
		Template: "hierarchical",
		Formats:  []string{"json"},
	})
	if err != nil {
		t.Fatalf("Execute with template failed: %v", err)
	}
	if got := result.Scene().Template; got != "hierarchical" {
		t.Errorf("Explicit template should win, got %q", got)
	}
}

func TestRunnerExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, discardLogger())
	defer runner.Close()
	ctx := context.Background()

	// Missing file
	_, err := runner.Execute(ctx, Options{SourcePath: "testdata/does-not-exist.md"})
	if !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("Missing file should report FILE_NOT_FOUND, got %v", err)
	}

	// Unknown template
	_, err = runner.Execute(ctx, Options{Source: "# Hi", Template: "no-such-template"})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidTemplate) {
		t.Errorf("Unknown template should report INVALID_TEMPLATE, got %v", err)
	}

	// Empty document
	_, err = runner.Execute(ctx, Options{Source: "   \n"})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidDocument) {
		t.Errorf("Empty document should report INVALID_DOCUMENT, got %v", err)
	}

	// Oversized document
	_, err = runner.Execute(ctx, Options{
		Source:           "# " + strings.Repeat("word ", 100),
		MaxDocumentBytes: 16,
	})
	var tooLarge *apperrors.DocumentTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Oversized document should report DocumentTooLargeError, got %v", err)
	}
	if tooLarge.LimitBytes != 16 {
		t.Errorf("LimitBytes should be 16, got %d", tooLarge.LimitBytes)
	}
}

func TestRunnerExecuteCanceled(t *testing.T) {
	runner := NewRunner(nil, nil, discardLogger())
	defer runner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Execute(ctx, Options{Source: testDocument}); err == nil {
		t.Error("Canceled context should fail")
	}
}

func TestRunnerNoCache(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(), nil, discardLogger())
	defer runner.Close()

	opts := Options{Source: testDocument, Formats: []string{"json"}, NoCache: true}

	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Second Execute failed: %v", err)
	}
	if result.CacheInfo.ParseHit || result.CacheInfo.SceneHit || result.CacheInfo.RenderHit {
		t.Error("NoCache runs should never hit the cache")
	}
}

func TestRunnerStages(t *testing.T) {
	runner := NewRunner(nil, nil, discardLogger())
	defer runner.Close()
	ctx := context.Background()

	opts := Options{Source: testDocument, Formats: []string{"x3d"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults failed: %v", err)
	}

	doc, err := runner.Parse(ctx, opts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(doc.Sections))
	}

	s, err := runner.BuildScene(ctx, doc, opts)
	if err != nil {
		t.Fatalf("BuildScene failed: %v", err)
	}
	if len(s.Nodes) != 3 {
		t.Errorf("Expected 3 nodes, got %d", len(s.Nodes))
	}

	artifacts, err := runner.Render(ctx, s, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(artifacts["x3d"]) == 0 {
		t.Error("X3D artifact should not be empty")
	}
}
