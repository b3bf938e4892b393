// Package markdown parses markdown documents into heading-delimited
// sections for scene construction.
//
// # Overview
//
// A document is parsed in three steps:
//
//  1. YAML frontmatter (--- delimited) is split off and decoded into [Meta].
//  2. The remaining source is parsed with goldmark (GFM dialect) and the
//     top-level blocks are folded into [Section] values: each heading opens
//     a section, and paragraph, list, and code content accumulates into the
//     open one. Text before the first heading becomes an implicit level-1
//     section so no content is lost.
//  3. Section IDs are derived from title slugs, disambiguated with numeric
//     suffixes.
//
// Alongside the text, each section records the signals the classifier feeds
// on: fenced code block languages, link destinations, list item counts, and
// word counts.
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	apperrors "github.com/MushroomFleet/Markdown3D-MCP/pkg/errors"
)

// Meta holds the YAML frontmatter fields the converter understands.
// Unknown fields are ignored.
type Meta struct {
	Title    string   `yaml:"title"`
	Tags     []string `yaml:"tags"`
	Template string   `yaml:"template"`
}

// Section is one heading-delimited region of a document.
type Section struct {
	ID          string   // slug of the title, unique within the document
	Title       string   // heading text
	Level       int      // heading level, 1-6
	Content     string   // accumulated body text, including code
	WordCount   int      // whitespace-delimited words in Content
	CodeLangs   []string // languages of fenced code blocks, deduplicated
	LinkTargets []string // destinations of links, in document order
	ListItems   int      // number of list items
	Line        int      // 1-based source line of the heading
}

// Document is a parsed markdown document.
type Document struct {
	Meta     Meta
	Title    string
	Sections []Section
}

// Config holds parser options.
type Config struct {
	// MaxSectionLevel is the deepest heading level that opens a new
	// section. Deeper headings fold into the open section as plain text.
	// Defaults to 6.
	MaxSectionLevel int
}

func (c Config) withDefaults() Config {
	if c.MaxSectionLevel == 0 {
		c.MaxSectionLevel = 6
	}
	return c
}

// Parser converts markdown source into a Document.
// A Parser is safe for reuse across documents.
type Parser struct {
	md  goldmark.Markdown
	cfg Config
}

// NewParser creates a parser with the given configuration.
func NewParser(cfg Config) *Parser {
	return &Parser{
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		cfg: cfg.withDefaults(),
	}
}

// Parse parses markdown source. The name is used for title fallback when
// neither frontmatter nor a level-1 heading provides one; pass the source
// filename or an empty string.
func (p *Parser) Parse(src []byte, name string) (*Document, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDocument, "document is empty")
	}

	meta, body, fmLines, err := splitFrontmatter(src)
	if err != nil {
		return nil, err
	}

	root := p.md.Parser().Parse(text.NewReader(body))

	var (
		preamble = &sectionBuilder{}
		builders []*sectionBuilder
		current  *sectionBuilder
	)
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		if h, ok := child.(*ast.Heading); ok {
			if h.Level <= p.cfg.MaxSectionLevel {
				current = &sectionBuilder{sec: Section{
					Title: inlineText(h, body),
					Level: h.Level,
					Line:  lineAt(body, h, fmLines),
				}}
				builders = append(builders, current)
				continue
			}
			// A heading deeper than the cutoff folds into the open
			// section as plain text.
			target := current
			if target == nil {
				target = preamble
			}
			target.parts = append(target.parts, inlineText(h, body))
			continue
		}

		target := current
		if target == nil {
			target = preamble
			if preamble.sec.Line == 0 {
				preamble.sec.Line = lineAt(body, child, fmLines)
			}
		}
		target.addBlock(child, body)
	}

	sections := make([]Section, 0, len(builders)+1)
	if pre := preamble.build(); pre.Content != "" {
		pre.Title = preambleTitle(meta, name)
		pre.Level = 1
		sections = append(sections, pre)
	}
	for _, b := range builders {
		sections = append(sections, b.build())
	}

	if len(sections) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDocument, "document has no sections")
	}

	alloc := newIDAlloc()
	for i := range sections {
		sections[i].ID = alloc.id(sections[i].Title, i+1)
	}

	return &Document{
		Meta:     meta,
		Title:    resolveTitle(meta, sections, name),
		Sections: sections,
	}, nil
}

// ParseFile reads and parses a markdown file.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "document not found: %s", path)
		}
		return nil, err
	}
	return p.Parse(data, filepath.Base(path))
}

// sectionBuilder accumulates the blocks belonging to one section.
type sectionBuilder struct {
	sec   Section
	parts []string
}

// addBlock folds one top-level block into the section: its text becomes a
// content part, and code languages, link targets, and list items are
// collected along the way.
func (b *sectionBuilder) addBlock(n ast.Node, src []byte) {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate sibling blocks (list items, paragraphs) so their
			// words do not run together.
			if node.Type() == ast.TypeBlock && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.FencedCodeBlock:
			if lang := t.Language(src); len(lang) > 0 {
				b.addCodeLang(string(lang))
			}
			writeLines(&sb, t.Lines(), src)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			writeLines(&sb, t.Lines(), src)
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			b.sec.LinkTargets = append(b.sec.LinkTargets, string(t.Destination))
		case *ast.AutoLink:
			b.sec.LinkTargets = append(b.sec.LinkTargets, string(t.URL(src)))
		case *ast.ListItem:
			b.sec.ListItems++
		}
		return ast.WalkContinue, nil
	})

	if part := strings.TrimSpace(sb.String()); part != "" {
		b.parts = append(b.parts, part)
	}
}

func (b *sectionBuilder) addCodeLang(lang string) {
	if !slices.Contains(b.sec.CodeLangs, lang) {
		b.sec.CodeLangs = append(b.sec.CodeLangs, lang)
	}
}

func (b *sectionBuilder) build() Section {
	sec := b.sec
	sec.Content = strings.Join(b.parts, "\n\n")
	sec.WordCount = len(strings.Fields(sec.Content))
	return sec
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// document body. It returns the body and the number of source lines the
// frontmatter consumed, for line number accounting. A lone "---" without a
// terminator is left to the markdown parser (it is a thematic break).
func splitFrontmatter(src []byte) (Meta, []byte, int, error) {
	var meta Meta

	nl := bytes.IndexByte(src, '\n')
	if nl < 0 || strings.TrimRight(string(src[:nl]), "\r") != "---" {
		return meta, src, 0, nil
	}

	pos := nl + 1
	line := 2
	for pos < len(src) {
		lineEnd := len(src)
		next := len(src)
		if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
			lineEnd = pos + i
			next = pos + i + 1
		}
		switch strings.TrimRight(string(src[pos:lineEnd]), "\r") {
		case "---", "...":
			if err := yaml.Unmarshal(src[nl+1:pos], &meta); err != nil {
				return meta, src, 0, apperrors.Wrap(apperrors.ErrCodeParseFailed, err, "invalid frontmatter")
			}
			return meta, src[next:], line, nil
		}
		pos = next
		line++
	}

	return meta, src, 0, nil
}

// inlineText extracts the plain text of a node's inline content.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func writeLines(sb *strings.Builder, lines *text.Segments, src []byte) {
	for i := range lines.Len() {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
}

// lineAt returns the 1-based document line of a node's first source
// segment, offset by the lines the frontmatter consumed.
func lineAt(body []byte, n ast.Node, fmLines int) int {
	off, ok := firstSegmentStart(n)
	if !ok {
		return 0
	}
	return fmLines + 1 + bytes.Count(body[:off], []byte{'\n'})
}

func firstSegmentStart(n ast.Node) (int, bool) {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := firstSegmentStart(c); ok {
			return off, true
		}
	}
	return 0, false
}

// Slugify converts a title to a lowercase hyphenated identifier. Section
// IDs are slugs of their titles, so anchors written GitHub-style resolve
// by slugifying the anchor text and comparing.
func Slugify(s string) string {
	var sb strings.Builder
	prevDash := true // also trims leading dashes
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			sb.WriteByte('-')
			prevDash = true
		}
	}
	slug := strings.TrimRight(sb.String(), "-")
	if runes := []rune(slug); len(runes) > 64 {
		slug = strings.TrimRight(string(runes[:64]), "-")
	}
	return slug
}

// idAlloc hands out document-unique section IDs.
type idAlloc struct {
	used map[string]bool
}

func newIDAlloc() *idAlloc {
	return &idAlloc{used: make(map[string]bool)}
}

func (a *idAlloc) id(title string, ordinal int) string {
	slug := Slugify(title)
	if slug == "" {
		slug = fmt.Sprintf("section-%d", ordinal)
	}
	id := slug
	for n := 2; a.used[id]; n++ {
		id = fmt.Sprintf("%s-%d", slug, n)
	}
	a.used[id] = true
	return id
}

func resolveTitle(meta Meta, sections []Section, name string) string {
	if meta.Title != "" {
		return meta.Title
	}
	for _, s := range sections {
		if s.Level == 1 && s.Title != "" {
			return s.Title
		}
	}
	if stem := fileStem(name); stem != "" {
		return stem
	}
	return "Document"
}

func preambleTitle(meta Meta, name string) string {
	if meta.Title != "" {
		return meta.Title
	}
	if stem := fileStem(name); stem != "" {
		return stem
	}
	return "Document"
}

func fileStem(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
