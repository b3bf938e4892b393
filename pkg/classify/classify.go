// Package classify assigns visual attributes to parsed sections.
//
// # Overview
//
// Classification is the bridge between [markdown.Section] records and
// renderable [scene.Node] values. Every attribute is derived from the
// section alone, so classification is deterministic and cacheable: the
// same section always produces the same shape, color, scale, and tags.
//
// Shape selection is rule-based and ordered. The first matching rule
// wins:
//
//  1. sections with fenced code blocks become cubes
//  2. sections with many outgoing links become spheres
//  3. top-level sections become pyramids
//  4. list-heavy sections become cylinders
//  5. question-style titles become cones
//  6. titles with cyclical vocabulary become tori
//
// Anything else falls back to a sphere. Color is a fixed per-level
// palette, and scale grows with word count on a log curve so a 5000-word
// section does not dwarf the scene.
package classify

import (
	"math"
	"strings"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Config tunes the classification thresholds. The zero value selects
// defaults that behave well for typical technical documents.
type Config struct {
	// ManyLinkThreshold is the outgoing-link count at which a section
	// reads as a hub and becomes a sphere. Default 3.
	ManyLinkThreshold int

	// ListHeavyThreshold is the list-item count at which a section
	// reads as an enumeration and becomes a cylinder. Default 4.
	ListHeavyThreshold int

	// ScaleMin and ScaleMax bound node scale. Defaults 0.6 and 2.2.
	// The upper bound is load-bearing: collision queries assume node
	// radii stay within a small constant of the base radius.
	ScaleMin float64
	ScaleMax float64

	// ScaleRefWords is the word count that reaches ScaleMax. Longer
	// sections are capped. Default 500.
	ScaleRefWords int

	// MaxTitleTags caps how many title keywords become tags. Default 5.
	MaxTitleTags int
}

func (c Config) withDefaults() Config {
	if c.ManyLinkThreshold <= 0 {
		c.ManyLinkThreshold = 3
	}
	if c.ListHeavyThreshold <= 0 {
		c.ListHeavyThreshold = 4
	}
	if c.ScaleMin <= 0 {
		c.ScaleMin = 0.6
	}
	if c.ScaleMax <= c.ScaleMin {
		c.ScaleMax = 2.2
	}
	if c.ScaleRefWords <= 0 {
		c.ScaleRefWords = 500
	}
	if c.MaxTitleTags <= 0 {
		c.MaxTitleTags = 5
	}
	return c
}

// Classifier applies the rules from a fixed Config.
type Classifier struct {
	cfg Config
}

// New returns a Classifier with defaults applied over cfg.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// Node builds the scene node for one section: identity and content are
// copied through, visual attributes are classified. Position is left at
// the origin for the layout engine to fill in.
func (c *Classifier) Node(sec markdown.Section) scene.Node {
	return scene.Node{
		ID:        sec.ID,
		Title:     sec.Title,
		Level:     sec.Level,
		Scale:     c.Scale(sec.WordCount),
		Shape:     c.Shape(sec),
		Color:     ColorForLevel(sec.Level),
		Tags:      c.Tags(sec),
		Content:   sec.Content,
		WordCount: sec.WordCount,
	}
}

// =============================================================================
// Shape
// =============================================================================

// questionWords open titles that read as questions.
var questionWords = map[string]bool{
	"what": true, "why": true, "how": true, "when": true,
	"where": true, "which": true, "who": true, "can": true,
	"should": true, "does": true, "is": true, "are": true,
}

// cyclicalWords mark titles about repeating structure.
var cyclicalWords = map[string]bool{
	"cycle": true, "cycles": true, "cyclical": true,
	"lifecycle": true, "loop": true, "loops": true,
	"looping": true, "recurring": true, "iteration": true,
	"iterative": true, "feedback": true,
}

// Shape picks the geometry for a section. Rules are checked in the
// order documented on the package; the first match wins.
func (c *Classifier) Shape(sec markdown.Section) scene.Shape {
	switch {
	case len(sec.CodeLangs) > 0:
		return scene.ShapeCube
	case len(sec.LinkTargets) >= c.cfg.ManyLinkThreshold:
		return scene.ShapeSphere
	case sec.Level == 1:
		return scene.ShapePyramid
	case sec.ListItems >= c.cfg.ListHeavyThreshold:
		return scene.ShapeCylinder
	case isQuestionTitle(sec.Title):
		return scene.ShapeCone
	case hasAnyWord(sec.Title, cyclicalWords):
		return scene.ShapeTorus
	default:
		return scene.ShapeSphere
	}
}

func isQuestionTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	words := titleWords(trimmed)
	if len(words) == 0 {
		return false
	}
	if questionWords[words[0]] {
		return true
	}
	for _, w := range words {
		if w == "faq" || w == "faqs" {
			return true
		}
	}
	return false
}

func hasAnyWord(title string, set map[string]bool) bool {
	for _, w := range titleWords(title) {
		if set[w] {
			return true
		}
	}
	return false
}

// titleWords lowercases the title and strips punctuation from each word.
func titleWords(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func isWordRune(r rune) bool {
	return r == '-' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127
}

// =============================================================================
// Color and Scale
// =============================================================================

// levelPalette maps heading depth to a diffuse color, hottest at the
// top. Levels beyond the palette reuse the last entry.
var levelPalette = []string{
	"#e63946", // level 1
	"#f4a261", // level 2
	"#e9c46a", // level 3
	"#2a9d8f", // level 4
	"#457b9d", // level 5
	"#8d5a97", // level 6
}

// ColorForLevel returns the palette color for a heading level. Levels
// below 1 clamp to the first entry, deep levels to the last.
func ColorForLevel(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(levelPalette) {
		level = len(levelPalette)
	}
	return levelPalette[level-1]
}

// Scale maps a word count into [ScaleMin, ScaleMax] on a log curve:
// empty sections sit at the minimum, ScaleRefWords and above at the
// maximum. Log damping keeps one huge section from dominating the
// scene while preserving ordering between sections.
func (c *Classifier) Scale(wordCount int) float64 {
	if wordCount <= 0 {
		return c.cfg.ScaleMin
	}
	t := math.Log1p(float64(wordCount)) / math.Log1p(float64(c.cfg.ScaleRefWords))
	if t > 1 {
		t = 1
	}
	return c.cfg.ScaleMin + (c.cfg.ScaleMax-c.cfg.ScaleMin)*t
}

// =============================================================================
// Tags
// =============================================================================

// titleStopWords are dropped when deriving tags from titles.
var titleStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"from": true, "into": true, "your": true, "our": true,
	"this": true, "that": true, "are": true, "was": true,
	"not": true, "you": true, "its": true, "via": true,
}

// Tags derives node tags from the title keywords and the section's code
// fence languages. Sections with any fenced code additionally carry the
// "code" tag, which downstream placement uses to sink implementation
// detail below prose.
func (c *Classifier) Tags(sec markdown.Section) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	count := 0
	for _, w := range titleWords(sec.Title) {
		if len(w) < 3 || titleStopWords[w] {
			continue
		}
		if count >= c.cfg.MaxTitleTags {
			break
		}
		add(w)
		count++
	}
	for _, lang := range sec.CodeLangs {
		add(strings.ToLower(lang))
	}
	if len(sec.CodeLangs) > 0 {
		add("code")
	}
	return tags
}
