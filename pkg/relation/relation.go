// Package relation extracts links between document sections.
//
// # Overview
//
// Four extractors run over the parsed sections, in order:
//
//   - hierarchy: each section links from its nearest enclosing section,
//     following heading nesting
//   - reference: in-document anchors ([text](#anchor)) resolve to the
//     section whose ID matches the slugged anchor
//   - keyword: sections whose keyword sets overlap enough (Jaccard
//     index at or above the threshold) link with the similarity as the
//     link weight, capped per node so dense documents stay readable
//   - sequence: consecutive same-level siblings under one parent link
//     in reading order
//
// The combined result is deduplicated by (from, to, kind) and is fully
// deterministic for a given section list.
package relation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/markdown"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Config tunes link extraction. The zero value selects defaults.
type Config struct {
	// SimilarityThreshold is the minimum Jaccard index for a keyword
	// link. Default 0.3.
	SimilarityThreshold float64

	// MaxKeywordLinks caps keyword links per node. Candidate pairs are
	// considered strongest-first, so the cap keeps the best matches.
	// Default 3.
	MaxKeywordLinks int

	// MinWordLength is the shortest token that counts as a keyword.
	// Default 3.
	MinWordLength int
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.3
	}
	if c.MaxKeywordLinks <= 0 {
		c.MaxKeywordLinks = 3
	}
	if c.MinWordLength <= 0 {
		c.MinWordLength = 3
	}
	return c
}

// Extractor derives links from sections using a fixed Config.
type Extractor struct {
	cfg Config
}

// New returns an Extractor with defaults applied over cfg.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// Links runs all extractors over the sections and returns the combined,
// deduplicated link list. Sections must carry the IDs assigned by the
// parser; fewer than two sections yield no links.
func (e *Extractor) Links(secs []markdown.Section) []scene.Link {
	if len(secs) < 2 {
		return nil
	}
	parents := parentIndexes(secs)

	var links []scene.Link
	links = append(links, hierarchyLinks(secs, parents)...)
	links = append(links, referenceLinks(secs)...)
	links = append(links, e.keywordLinks(secs)...)
	links = append(links, sequenceLinks(secs, parents)...)
	return dedupLinks(links)
}

// parentIndexes resolves each section's parent: the nearest preceding
// section with a smaller heading level, or -1 for top-level sections.
func parentIndexes(secs []markdown.Section) []int {
	parents := make([]int, len(secs))
	for i := range secs {
		parents[i] = -1
		for j := i - 1; j >= 0; j-- {
			if secs[j].Level < secs[i].Level {
				parents[i] = j
				break
			}
		}
	}
	return parents
}

// =============================================================================
// Hierarchy and Sequence
// =============================================================================

func hierarchyLinks(secs []markdown.Section, parents []int) []scene.Link {
	var links []scene.Link
	for i, p := range parents {
		if p < 0 {
			continue
		}
		links = append(links, scene.Link{
			From:   secs[p].ID,
			To:     secs[i].ID,
			Kind:   scene.LinkHierarchy,
			Weight: 1,
		})
	}
	return links
}

func sequenceLinks(secs []markdown.Section, parents []int) []scene.Link {
	var links []scene.Link
	for i := 1; i < len(secs); i++ {
		// Walk back over deeper subsections to the previous sibling. A
		// shallower section in between means a different parent scope.
		for j := i - 1; j >= 0; j-- {
			if secs[j].Level < secs[i].Level {
				break
			}
			if secs[j].Level == secs[i].Level {
				if parents[j] == parents[i] {
					links = append(links, scene.Link{
						From:   secs[j].ID,
						To:     secs[i].ID,
						Kind:   scene.LinkSequence,
						Weight: 1,
					})
				}
				break
			}
		}
	}
	return links
}

// =============================================================================
// References
// =============================================================================

func referenceLinks(secs []markdown.Section) []scene.Link {
	ids := make(map[string]bool, len(secs))
	for _, s := range secs {
		ids[s.ID] = true
	}

	var links []scene.Link
	for _, s := range secs {
		for _, target := range s.LinkTargets {
			anchor, ok := strings.CutPrefix(target, "#")
			if !ok {
				continue
			}
			id := markdown.Slugify(anchor)
			if !ids[id] || id == s.ID {
				continue
			}
			links = append(links, scene.Link{
				From:   s.ID,
				To:     id,
				Kind:   scene.LinkReference,
				Weight: 1,
			})
		}
	}
	return links
}

// =============================================================================
// Keyword Similarity
// =============================================================================

func (e *Extractor) keywordLinks(secs []markdown.Section) []scene.Link {
	sets := make([]map[string]bool, len(secs))
	for i, s := range secs {
		sets[i] = e.keywords(s)
	}

	type candidate struct {
		i, j int
		sim  float64
	}
	var cands []candidate
	for i := range secs {
		for j := i + 1; j < len(secs); j++ {
			if sim := jaccard(sets[i], sets[j]); sim >= e.cfg.SimilarityThreshold {
				cands = append(cands, candidate{i: i, j: j, sim: sim})
			}
		}
	}

	// Strongest pairs claim cap slots first; ties keep document order.
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].sim != cands[b].sim {
			return cands[a].sim > cands[b].sim
		}
		if cands[a].i != cands[b].i {
			return cands[a].i < cands[b].i
		}
		return cands[a].j < cands[b].j
	})

	degree := make([]int, len(secs))
	var links []scene.Link
	for _, c := range cands {
		if degree[c.i] >= e.cfg.MaxKeywordLinks || degree[c.j] >= e.cfg.MaxKeywordLinks {
			continue
		}
		degree[c.i]++
		degree[c.j]++
		links = append(links, scene.Link{
			From:   secs[c.i].ID,
			To:     secs[c.j].ID,
			Kind:   scene.LinkKeyword,
			Weight: c.sim,
		})
	}
	return links
}

// keywords tokenizes the section title and content into a lowercase
// set, dropping stop words, short tokens, and bare numbers.
func (e *Extractor) keywords(sec markdown.Section) map[string]bool {
	set := make(map[string]bool)
	var word strings.Builder
	hasLetter := false

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		letter := hasLetter
		hasLetter = false
		if !letter || len([]rune(w)) < e.cfg.MinWordLength || stopWords[w] {
			return
		}
		set[w] = true
	}

	for _, r := range strings.ToLower(sec.Title + " " + sec.Content) {
		if unicode.IsLetter(r) {
			word.WriteRune(r)
			hasLetter = true
		} else if unicode.IsDigit(r) {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return set
}

// jaccard is |A ∩ B| / |A ∪ B|, zero when both sets are empty.
func jaccard(a, b map[string]bool) float64 {
	intersection := 0
	union := len(b)
	for w := range a {
		if b[w] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// =============================================================================
// Dedup
// =============================================================================

type linkKey struct {
	from, to string
	kind     scene.LinkKind
}

// dedupLinks keeps the first occurrence of each (from, to, kind).
func dedupLinks(links []scene.Link) []scene.Link {
	seen := make(map[linkKey]bool, len(links))
	out := links[:0]
	for _, l := range links {
		k := linkKey{from: l.From, to: l.To, kind: l.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}

var stopWords = map[string]bool{
	"about": true, "after": true, "all": true, "also": true,
	"and": true, "any": true, "are": true, "because": true,
	"been": true, "before": true, "but": true, "can": true,
	"could": true, "did": true, "does": true, "each": true,
	"for": true, "from": true, "had": true, "has": true,
	"have": true, "here": true, "how": true, "into": true,
	"its": true, "just": true, "like": true, "more": true,
	"most": true, "not": true, "one": true, "only": true,
	"other": true, "our": true, "out": true, "over": true,
	"should": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true,
	"this": true, "under": true, "use": true, "used": true,
	"using": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true,
	"who": true, "why": true, "will": true, "with": true,
	"would": true, "you": true, "your": true,
}
