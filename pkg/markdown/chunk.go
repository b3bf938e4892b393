package markdown

import "fmt"

// DefaultMaxSections is the chunking threshold used when a Chunker is
// zero-valued.
const DefaultMaxSections = 60

// Chunker splits a parsed document into bounded pieces.
//
// Very large documents would produce scenes with hundreds of nodes, which
// overwhelm both the layout solver and the viewer. Chunking groups
// top-level sections together with their descendants into documents of at
// most MaxSections sections each; every chunk is converted independently.
type Chunker struct {
	MaxSections int
}

// Chunk splits doc along top-level section boundaries. Documents at or
// under the threshold are returned unchanged as a single chunk. A single
// top-level section larger than the threshold is never split; it forms an
// oversized chunk of its own.
func (c Chunker) Chunk(doc *Document) []*Document {
	maxSections := c.MaxSections
	if maxSections <= 0 {
		maxSections = DefaultMaxSections
	}
	if len(doc.Sections) <= maxSections {
		return []*Document{doc}
	}

	top := topLevel(doc.Sections)
	var groups [][]Section
	var group []Section
	for _, s := range doc.Sections {
		if s.Level == top && len(group) > 0 {
			groups = append(groups, group)
			group = nil
		}
		group = append(group, s)
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}

	var chunks []*Document
	var pending []Section
	flush := func() {
		if len(pending) == 0 {
			return
		}
		chunks = append(chunks, &Document{Meta: doc.Meta, Title: doc.Title, Sections: pending})
		pending = nil
	}
	for _, g := range groups {
		if len(pending) > 0 && len(pending)+len(g) > maxSections {
			flush()
		}
		pending = append(pending, g...)
	}
	flush()

	if len(chunks) > 1 {
		for i, ch := range chunks {
			ch.Title = fmt.Sprintf("%s (%d/%d)", doc.Title, i+1, len(chunks))
		}
	}
	return chunks
}

// topLevel returns the smallest heading level present, so documents that
// start at level 2 still chunk along their outermost boundaries.
func topLevel(sections []Section) int {
	top := sections[0].Level
	for _, s := range sections[1:] {
		if s.Level < top {
			top = s.Level
		}
	}
	return top
}
