package markdown

import (
	"testing"

	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
)

const sampleDoc = `---
title: Spatial Notes
tags: [research, technical]
template: research-paper
---

Intro paragraph before any heading.

# Overview

This document collects notes. See [the infra guide](https://example.com/guide).

## Methods

We apply two techniques:

- sampling
- annealing

` + "```go\nfunc main() {}\n```" + `

## Results

Numbers improved.
`

func TestParseFullDocument(t *testing.T) {
	p := NewParser(Config{})
	doc, err := p.Parse([]byte(sampleDoc), "notes.md")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if doc.Title != "Spatial Notes" {
		t.Errorf("Title = %q, want %q", doc.Title, "Spatial Notes")
	}
	if doc.Meta.Template != "research-paper" {
		t.Errorf("Meta.Template = %q, want %q", doc.Meta.Template, "research-paper")
	}
	if len(doc.Meta.Tags) != 2 || doc.Meta.Tags[0] != "research" || doc.Meta.Tags[1] != "technical" {
		t.Errorf("Meta.Tags = %v", doc.Meta.Tags)
	}

	if len(doc.Sections) != 4 {
		t.Fatalf("got %d sections, want 4: %+v", len(doc.Sections), doc.Sections)
	}

	wantIDs := []string{"spatial-notes", "overview", "methods", "results"}
	wantLevels := []int{1, 1, 2, 2}
	wantLines := []int{7, 9, 13, 24}
	for i, s := range doc.Sections {
		if s.ID != wantIDs[i] {
			t.Errorf("section %d ID = %q, want %q", i, s.ID, wantIDs[i])
		}
		if s.Level != wantLevels[i] {
			t.Errorf("section %d Level = %d, want %d", i, s.Level, wantLevels[i])
		}
		if s.Line != wantLines[i] {
			t.Errorf("section %d Line = %d, want %d", i, s.Line, wantLines[i])
		}
	}

	pre := doc.Sections[0]
	if pre.Title != "Spatial Notes" {
		t.Errorf("preamble Title = %q", pre.Title)
	}
	if pre.Content != "Intro paragraph before any heading." {
		t.Errorf("preamble Content = %q", pre.Content)
	}

	overview := doc.Sections[1]
	if overview.Content != "This document collects notes. See the infra guide." {
		t.Errorf("overview Content = %q", overview.Content)
	}
	if overview.WordCount != 8 {
		t.Errorf("overview WordCount = %d, want 8", overview.WordCount)
	}
	if len(overview.LinkTargets) != 1 || overview.LinkTargets[0] != "https://example.com/guide" {
		t.Errorf("overview LinkTargets = %v", overview.LinkTargets)
	}

	methods := doc.Sections[2]
	wantMethods := "We apply two techniques:\n\nsampling\nannealing\n\nfunc main() {}"
	if methods.Content != wantMethods {
		t.Errorf("methods Content = %q, want %q", methods.Content, wantMethods)
	}
	if methods.WordCount != 9 {
		t.Errorf("methods WordCount = %d, want 9", methods.WordCount)
	}
	if methods.ListItems != 2 {
		t.Errorf("methods ListItems = %d, want 2", methods.ListItems)
	}
	if len(methods.CodeLangs) != 1 || methods.CodeLangs[0] != "go" {
		t.Errorf("methods CodeLangs = %v", methods.CodeLangs)
	}

	results := doc.Sections[3]
	if results.Content != "Numbers improved." {
		t.Errorf("results Content = %q", results.Content)
	}
}

func TestParseNoHeadings(t *testing.T) {
	p := NewParser(Config{})
	doc, err := p.Parse([]byte("Just two paragraphs.\n\nMore text here.\n"), "notes.md")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.ID != "notes" || s.Title != "notes" || s.Level != 1 {
		t.Errorf("section = %+v", s)
	}
	if s.Content != "Just two paragraphs.\n\nMore text here." {
		t.Errorf("Content = %q", s.Content)
	}
	if s.Line != 1 {
		t.Errorf("Line = %d, want 1", s.Line)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	p := NewParser(Config{})

	for _, src := range []string{"", "   \n\t\n"} {
		_, err := p.Parse([]byte(src), "")
		if !apperrors.Is(err, apperrors.ErrCodeInvalidDocument) {
			t.Errorf("Parse(%q) error = %v, want INVALID_DOCUMENT", src, err)
		}
	}
}

func TestParseDuplicateTitles(t *testing.T) {
	src := "# Setup\n\nfirst\n\n# Setup\n\nsecond\n\n# Setup 2\n\nthird\n"
	p := NewParser(Config{})
	doc, err := p.Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	wantIDs := []string{"setup", "setup-2", "setup-2-2"}
	if len(doc.Sections) != len(wantIDs) {
		t.Fatalf("got %d sections, want %d", len(doc.Sections), len(wantIDs))
	}
	for i, s := range doc.Sections {
		if s.ID != wantIDs[i] {
			t.Errorf("section %d ID = %q, want %q", i, s.ID, wantIDs[i])
		}
	}
}

func TestParseDeepHeadingsFold(t *testing.T) {
	src := "# Architecture\n\n### Detail\n\nbody under detail\n"
	p := NewParser(Config{MaxSectionLevel: 2})
	doc, err := p.Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	want := "Detail\n\nbody under detail"
	if doc.Sections[0].Content != want {
		t.Errorf("Content = %q, want %q", doc.Sections[0].Content, want)
	}
}

func TestParseSetextHeading(t *testing.T) {
	src := "Big Title\n=========\n\nbody\n"
	p := NewParser(Config{})
	doc, err := p.Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	if doc.Sections[0].Title != "Big Title" || doc.Sections[0].Level != 1 {
		t.Errorf("section = %+v", doc.Sections[0])
	}
	if doc.Title != "Big Title" {
		t.Errorf("Title = %q", doc.Title)
	}
}

func TestParseInvalidFrontmatter(t *testing.T) {
	src := "---\ntitle: [unclosed\n---\n\n# A\n"
	p := NewParser(Config{})
	_, err := p.Parse([]byte(src), "")
	if !apperrors.Is(err, apperrors.ErrCodeParseFailed) {
		t.Errorf("Parse error = %v, want PARSE_FAILED", err)
	}
}

func TestParseUnterminatedFrontmatterIsContent(t *testing.T) {
	src := "---\ntitle: x\n\n# Heading\n"
	p := NewParser(Config{})
	doc, err := p.Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if doc.Meta.Title != "" {
		t.Errorf("Meta.Title = %q, want empty (no terminator)", doc.Meta.Title)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Sections[0].Content != "title: x" {
		t.Errorf("preamble Content = %q", doc.Sections[0].Content)
	}
	if doc.Sections[1].Title != "Heading" {
		t.Errorf("section Title = %q", doc.Sections[1].Title)
	}
}

func TestParseAutolink(t *testing.T) {
	src := "# Links\n\nVisit https://example.com now.\n"
	p := NewParser(Config{})
	doc, err := p.Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s := doc.Sections[0]
	if len(s.LinkTargets) != 1 || s.LinkTargets[0] != "https://example.com" {
		t.Errorf("LinkTargets = %v", s.LinkTargets)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Overview", "overview"},
		{"1.2 Design Notes", "1-2-design-notes"},
		{"What -- Next?", "what-next"},
		{"  spaced  out  ", "spaced-out"},
		{"Übersicht", "übersicht"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
